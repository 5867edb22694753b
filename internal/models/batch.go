package models

import (
	"io"
	"time"
)

// FileSource is an uploaded transcript as handed over by the ingress layer.
// Open is called exactly once, when the batch is created.
type FileSource struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// ResultMetadata carries optional details reported by a provider call.
type ResultMetadata struct {
	TokenCount       *int  `json:"tokenCount,omitempty"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// ProviderResult is the outcome of one successful provider call for one file.
type ProviderResult struct {
	Model       string         `json:"model"`
	Filename    string         `json:"filename"`
	Analysis    string         `json:"analysis"`
	Metadata    ResultMetadata `json:"metadata"`
	CompletedAt time.Time      `json:"completedAt"`
}

func (r *ProviderResult) Clone() *ProviderResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Metadata.TokenCount != nil {
		n := *r.Metadata.TokenCount
		out.Metadata.TokenCount = &n
	}
	return &out
}

// FileRecord is the per-transcript state inside a batch.
type FileRecord struct {
	ID          string                           `json:"id"`
	Filename    string                           `json:"filename"`
	Size        int64                            `json:"size"`
	Content     string                           `json:"-"`
	Status      FileStatus                       `json:"status"`
	StartedAt   *time.Time                       `json:"startedAt,omitempty"`
	CompletedAt *time.Time                       `json:"completedAt,omitempty"`
	DurationMs  int64                            `json:"durationMs,omitempty"`
	Results     map[ProviderName]*ProviderResult `json:"results"`
	Error       string                           `json:"error,omitempty"`
	// RetryCount is reserved; nothing increments it.
	RetryCount int `json:"retryCount"`
}

func (f *FileRecord) Clone() *FileRecord {
	if f == nil {
		return nil
	}
	out := *f
	out.StartedAt = cloneTime(f.StartedAt)
	out.CompletedAt = cloneTime(f.CompletedAt)
	out.Results = make(map[ProviderName]*ProviderResult, len(f.Results))
	for k, v := range f.Results {
		out.Results[k] = v.Clone()
	}
	return &out
}

// BatchMetrics aggregates file counts and timings for a batch.
type BatchMetrics struct {
	Total                int                  `json:"total"`
	Pending              int                  `json:"pending"`
	Processing           int                  `json:"processing"`
	Completed            int                  `json:"completed"`
	Failed               int                  `json:"failed"`
	ProviderComplete     map[ProviderName]int `json:"providerComplete"`
	StartTime            *time.Time           `json:"startTime,omitempty"`
	EndTime              *time.Time           `json:"endTime,omitempty"`
	ElapsedMs            int64                `json:"elapsedMs"`
	AverageFileMs        int64                `json:"averageFileMs"`
	EstimatedRemainingMs int64                `json:"estimatedRemainingMs"`
}

// NewBatchMetrics returns metrics for a fresh batch: every file pending.
func NewBatchMetrics(total int) BatchMetrics {
	m := BatchMetrics{
		Total:            total,
		Pending:          total,
		ProviderComplete: make(map[ProviderName]int, len(Providers)),
	}
	for _, p := range Providers {
		m.ProviderComplete[p] = 0
	}
	return m
}

func (m BatchMetrics) Clone() BatchMetrics {
	out := m
	out.StartTime = cloneTime(m.StartTime)
	out.EndTime = cloneTime(m.EndTime)
	out.ProviderComplete = make(map[ProviderName]int, len(m.ProviderComplete))
	for k, v := range m.ProviderComplete {
		out.ProviderComplete[k] = v
	}
	return out
}

// Finished is the number of files that reached a terminal status.
func (m BatchMetrics) Finished() int {
	return m.Completed + m.Failed
}

// Batch is one submission: files processed under one JobConfig.
type Batch struct {
	ID          string        `json:"id"`
	Status      BatchStatus   `json:"status"`
	Files       []*FileRecord `json:"files"`
	Job         *JobConfig    `json:"job,omitempty"`
	Metrics     BatchMetrics  `json:"metrics"`
	CreatedAt   time.Time     `json:"createdAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// File looks a record up by id.
func (b *Batch) File(id string) *FileRecord {
	for _, f := range b.Files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand out of the registry.
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	out := *b
	out.Job = b.Job.Clone()
	out.Metrics = b.Metrics.Clone()
	out.StartedAt = cloneTime(b.StartedAt)
	out.CompletedAt = cloneTime(b.CompletedAt)
	out.Files = make([]*FileRecord, len(b.Files))
	for i, f := range b.Files {
		out.Files[i] = f.Clone()
	}
	return &out
}

// BatchProgress is what progress polling returns.
type BatchProgress struct {
	BatchID         string       `json:"batchId"`
	Status          BatchStatus  `json:"status"`
	Metrics         BatchMetrics `json:"metrics"`
	ProcessingFiles []string     `json:"processingFiles"`
	CreatedAt       time.Time    `json:"createdAt"`
	StartedAt       *time.Time   `json:"startedAt,omitempty"`
	CompletedAt     *time.Time   `json:"completedAt,omitempty"`
	Error           string       `json:"error,omitempty"`
}

// FileResults is the per-file slice of MultiModelResults.
type FileResults struct {
	FileID   string                           `json:"fileId"`
	Filename string                           `json:"filename"`
	Status   FileStatus                       `json:"status"`
	Error    string                           `json:"error,omitempty"`
	Results  map[ProviderName]*ProviderResult `json:"results"`
}

// MultiModelResults is the read-only view consumed by the archive.
type MultiModelResults struct {
	BatchID string        `json:"batchId"`
	Status  BatchStatus   `json:"status"`
	Files   []FileResults `json:"files"`
}

// Count returns the number of provider results present.
func (r MultiModelResults) Count() int {
	n := 0
	for _, f := range r.Files {
		for _, res := range f.Results {
			if res != nil {
				n++
			}
		}
	}
	return n
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
