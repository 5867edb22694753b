package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validDescription = "Please analyze this customer support call transcript for sentiment"
	validPrompt      = "Summarize the key issues raised by the customer"
)

func TestJobConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		job     JobConfig
		wantErr string
	}{
		{
			name: "valid",
			job:  JobConfig{JobDescription: validDescription, Prompt: validPrompt},
		},
		{
			name:    "missing description",
			job:     JobConfig{Prompt: validPrompt},
			wantErr: "jobDescription is required",
		},
		{
			name:    "short prompt",
			job:     JobConfig{JobDescription: validDescription, Prompt: "too short"},
			wantErr: "prompt must be at least 20 characters",
		},
		{
			name:    "whitespace padding does not count",
			job:     JobConfig{JobDescription: validDescription, Prompt: "   short prompt   " + strings.Repeat(" ", 20)},
			wantErr: "prompt must be at least 20 characters",
		},
		{
			name: "unknown provider",
			job: JobConfig{
				JobDescription: validDescription,
				Prompt:         validPrompt,
				Models:         map[ProviderName]string{"mistral": "large"},
			},
			wantErr: `unknown provider "mistral"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestJobConfigNormalize(t *testing.T) {
	job := JobConfig{
		JobDescription: "  " + validDescription + "\n",
		Prompt:         validPrompt,
		Models: map[ProviderName]string{
			ProviderOpenAI: " gpt-4o ",
			ProviderClaude: "   ",
		},
	}
	job.Normalize()

	assert.Equal(t, validDescription, job.JobDescription)
	assert.Equal(t, map[ProviderName]string{ProviderOpenAI: "gpt-4o"}, job.Models)
	assert.Equal(t, "gpt-4o", job.ModelFor(ProviderOpenAI, "fallback"))
	assert.Equal(t, "fallback", job.ModelFor(ProviderClaude, "fallback"))

	var nilJob *JobConfig
	assert.Equal(t, "fallback", nilJob.ModelFor(ProviderGemini, "fallback"))
}

func TestStatuses(t *testing.T) {
	assert.False(t, BatchCreated.IsTerminal())
	assert.False(t, BatchProcessing.IsTerminal())
	assert.True(t, BatchCompleted.IsTerminal())
	assert.True(t, BatchFailed.IsTerminal())
	assert.True(t, BatchCancelled.IsTerminal())

	assert.False(t, FilePending.IsTerminal())
	assert.True(t, FileFailed.IsTerminal())

	assert.True(t, ProviderGemini.IsValid())
	assert.False(t, ProviderName("OpenAI").IsValid())
}

func TestBatchClone(t *testing.T) {
	now := time.Now()
	tokens := 12
	b := &Batch{
		ID:     "b1",
		Status: BatchProcessing,
		Job:    &JobConfig{JobDescription: validDescription, Prompt: validPrompt, Models: map[ProviderName]string{ProviderOpenAI: "gpt-4o"}},
		Files: []*FileRecord{{
			ID:        "f1",
			Filename:  "a.txt",
			Status:    FileProcessing,
			StartedAt: &now,
			Results: map[ProviderName]*ProviderResult{
				ProviderOpenAI: {Model: "gpt-4o", Analysis: "ok", Metadata: ResultMetadata{TokenCount: &tokens}},
			},
		}},
		Metrics:   NewBatchMetrics(1),
		StartedAt: &now,
	}

	c := b.Clone()
	c.Job.Models[ProviderOpenAI] = "changed"
	c.Files[0].Status = FileCompleted
	c.Files[0].Results[ProviderOpenAI].Analysis = "changed"
	*c.Files[0].Results[ProviderOpenAI].Metadata.TokenCount = 99
	c.Files[0].Results[ProviderClaude] = &ProviderResult{}
	c.Metrics.ProviderComplete[ProviderOpenAI] = 5
	*c.StartedAt = now.Add(time.Hour)

	assert.Equal(t, "gpt-4o", b.Job.Models[ProviderOpenAI])
	assert.Equal(t, FileProcessing, b.Files[0].Status)
	assert.Equal(t, "ok", b.Files[0].Results[ProviderOpenAI].Analysis)
	assert.Equal(t, 12, *b.Files[0].Results[ProviderOpenAI].Metadata.TokenCount)
	assert.Len(t, b.Files[0].Results, 1)
	assert.Equal(t, 0, b.Metrics.ProviderComplete[ProviderOpenAI])
	assert.True(t, b.StartedAt.Equal(now))

	assert.Same(t, b.Files[0], b.File("f1"))
	assert.Nil(t, b.File("missing"))
}

func TestNewBatchMetrics(t *testing.T) {
	m := NewBatchMetrics(3)
	assert.Equal(t, 3, m.Total)
	assert.Equal(t, 3, m.Pending)
	assert.Len(t, m.ProviderComplete, len(Providers))
	assert.Equal(t, 0, m.Finished())
}

func TestMultiModelResultsCount(t *testing.T) {
	r := MultiModelResults{Files: []FileResults{
		{Results: map[ProviderName]*ProviderResult{ProviderOpenAI: {}, ProviderClaude: {}}},
		{Results: map[ProviderName]*ProviderResult{ProviderGemini: {}, ProviderClaude: nil}},
	}}
	assert.Equal(t, 3, r.Count())
}
