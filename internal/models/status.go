package models

// BatchStatus is the lifecycle state of a batch.
type BatchStatus string

const (
	BatchCreated    BatchStatus = "created"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchCancelled  BatchStatus = "cancelled"
)

func (s BatchStatus) String() string { return string(s) }

// IsTerminal reports whether no further transition can happen.
func (s BatchStatus) IsTerminal() bool {
	switch s {
	case BatchCompleted, BatchFailed, BatchCancelled:
		return true
	}
	return false
}

// FileStatus is the processing state of a single transcript.
type FileStatus string

const (
	FilePending    FileStatus = "pending"
	FileProcessing FileStatus = "processing"
	FileCompleted  FileStatus = "completed"
	FileFailed     FileStatus = "failed"
)

func (s FileStatus) String() string { return string(s) }

func (s FileStatus) IsTerminal() bool {
	return s == FileCompleted || s == FileFailed
}

// ProviderName tags one of the text-generation providers.
type ProviderName string

const (
	ProviderOpenAI ProviderName = "openai"
	ProviderClaude ProviderName = "claude"
	ProviderGemini ProviderName = "gemini"
)

// Providers lists every provider in the order results are reported and archived.
var Providers = []ProviderName{ProviderOpenAI, ProviderClaude, ProviderGemini}

func (p ProviderName) String() string { return string(p) }

func (p ProviderName) IsValid() bool {
	for _, name := range Providers {
		if p == name {
			return true
		}
	}
	return false
}
