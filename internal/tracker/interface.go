package tracker

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Tracker owns the lifecycle of batches: creation, sequential multi-provider
// processing, progress queries, cancellation and deletion.
type Tracker interface {
	// CreateBatch reads every file eagerly and registers a batch in the created state.
	CreateBatch(ctx context.Context, files []models.FileSource, job *models.JobConfig) (string, error)
	// StartProcessing runs the batch to completion and blocks until it is done.
	StartProcessing(ctx context.Context, batchID string) error
	// Launch runs StartProcessing on a detached goroutine; failures are only logged.
	Launch(batchID string)

	GetProgress(batchID string) (*models.BatchProgress, error)
	GetResults(batchID string) (*models.MultiModelResults, error)
	ListBatches() []*models.Batch
	CancelBatch(batchID string) bool
	DeleteBatch(batchID string) bool

	// Shutdown interrupts running batches and waits for detached tasks.
	Shutdown(ctx context.Context) error
}

// Options tunes the processing loop.
type Options struct {
	// FileDelay is the pause between two files of the same batch.
	FileDelay time.Duration
	// MaxConcurrent bounds how many launched batches run at once.
	MaxConcurrent int
}
