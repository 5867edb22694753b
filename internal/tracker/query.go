package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/internal/registry"
)

func (t *implTracker) get(batchID string) (*models.Batch, error) {
	b, err := t.registry.Get(batchID)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, batchID)
	}
	return b, err
}

// GetProgress returns a snapshot of the batch status and metrics
func (t *implTracker) GetProgress(batchID string) (*models.BatchProgress, error) {
	b, err := t.get(batchID)
	if err != nil {
		return nil, err
	}

	metrics := b.Metrics
	if metrics.StartTime != nil {
		end := t.now()
		if metrics.EndTime != nil {
			end = *metrics.EndTime
		}
		metrics.ElapsedMs = end.Sub(*metrics.StartTime).Milliseconds()
	}

	processing := make([]string, 0, 1)
	for _, f := range b.Files {
		if f.Status == models.FileProcessing {
			processing = append(processing, f.Filename)
		}
	}

	return &models.BatchProgress{
		BatchID:         b.ID,
		Status:          b.Status,
		Metrics:         metrics,
		ProcessingFiles: processing,
		CreatedAt:       b.CreatedAt,
		StartedAt:       b.StartedAt,
		CompletedAt:     b.CompletedAt,
		Error:           b.Error,
	}, nil
}

// GetResults returns whatever provider results are present, per file in submission order
func (t *implTracker) GetResults(batchID string) (*models.MultiModelResults, error) {
	b, err := t.get(batchID)
	if err != nil {
		return nil, err
	}

	out := &models.MultiModelResults{
		BatchID: b.ID,
		Status:  b.Status,
		Files:   make([]models.FileResults, 0, len(b.Files)),
	}
	for _, f := range b.Files {
		out.Files = append(out.Files, models.FileResults{
			FileID:   f.ID,
			Filename: f.Filename,
			Status:   f.Status,
			Error:    f.Error,
			Results:  f.Results,
		})
	}
	return out, nil
}

func (t *implTracker) ListBatches() []*models.Batch {
	return t.registry.List()
}

// CancelBatch marks a running or queued batch cancelled and interrupts its in-flight work
func (t *implTracker) CancelBatch(batchID string) bool {
	err := t.registry.Update(batchID, func(b *models.Batch) error {
		if b.Status.IsTerminal() {
			return errRejected
		}
		now := t.now()
		b.Status = models.BatchCancelled
		b.CompletedAt = &now
		b.Metrics.EndTime = &now
		return nil
	})
	if err != nil {
		return false
	}

	t.mu.Lock()
	cancel := t.cancels[batchID]
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	t.logger.Info(logger.WithBatchID(context.Background(), batchID), "Batch cancelled")
	return true
}

// DeleteBatch removes a batch that is not currently processing
func (t *implTracker) DeleteBatch(batchID string) bool {
	removed := t.registry.Remove(batchID, func(b *models.Batch) bool {
		return b.Status != models.BatchProcessing
	})
	if removed {
		t.logger.Info(logger.WithBatchID(context.Background(), batchID), "Batch deleted")
	}
	return removed
}

// Launch processes the batch in the background once a concurrency slot is free
func (t *implTracker) Launch(batchID string) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx := logger.WithBatchID(t.baseCtx, batchID)
		if err := t.sem.acquire(ctx); err != nil {
			t.logger.Warn(ctx, "Batch not started: %v", err)
			return
		}
		defer t.sem.release()

		if err := t.StartProcessing(ctx, batchID); err != nil {
			if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNotFound) {
				t.logger.Warn(ctx, "Batch skipped: %v", err)
				return
			}
			t.logger.Error(ctx, "Background processing failed: %v", err)
		}
	}()
}

// Shutdown cancels running batches, which end up failed, and waits for every
// launched task. Batches still queued for a slot are never started and stay
// created; nothing outlives the process, so they are simply dropped with it.
func (t *implTracker) Shutdown(ctx context.Context) error {
	t.stop()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
