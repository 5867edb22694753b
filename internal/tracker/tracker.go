package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/internal/processor"
	"github.com/nguyentantai21042004/insight-flow/internal/registry"
)

const allProvidersFailed = "all providers failed"

type fileTask struct {
	id         string
	filename   string
	transcript string
}

// CreateBatch reads every file and registers a new batch in the created state
func (t *implTracker) CreateBatch(ctx context.Context, files []models.FileSource, job *models.JobConfig) (string, error) {
	if len(files) == 0 {
		return "", ErrNoFiles
	}

	records := make([]*models.FileRecord, 0, len(files))
	for _, f := range files {
		content, err := readAll(f)
		if err != nil {
			return "", fmt.Errorf("%w %s: %v", ErrIO, f.Filename, err)
		}
		size := f.Size
		if size == 0 {
			size = int64(len(content))
		}
		records = append(records, &models.FileRecord{
			ID:       uuid.NewString(),
			Filename: f.Filename,
			Size:     size,
			Content:  content,
			Status:   models.FilePending,
			Results:  make(map[models.ProviderName]*models.ProviderResult, len(models.Providers)),
		})
	}

	batch := &models.Batch{
		ID:        uuid.NewString(),
		Status:    models.BatchCreated,
		Files:     records,
		Job:       job.Clone(),
		Metrics:   models.NewBatchMetrics(len(records)),
		CreatedAt: t.now(),
	}
	if err := t.registry.Add(batch); err != nil {
		return "", err
	}

	t.logger.Info(logger.WithBatchID(ctx, batch.ID), "Batch created with %d file(s)", len(records))
	return batch.ID, nil
}

func readAll(f models.FileSource) (string, error) {
	if f.Open == nil {
		return "", errors.New("no content")
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// StartProcessing moves the batch to processing and works through its files one at a time
func (t *implTracker) StartProcessing(ctx context.Context, batchID string) (err error) {
	ctx = logger.WithBatchID(ctx, batchID)

	var (
		tasks []fileTask
		job   *models.JobConfig
	)
	err = t.registry.Update(batchID, func(b *models.Batch) error {
		now := t.now()
		if b.Job == nil {
			if !b.Status.IsTerminal() {
				b.Status = models.BatchFailed
				b.Error = ErrConfigMissing.Error()
				b.CompletedAt = &now
			}
			return ErrConfigMissing
		}
		if b.Status != models.BatchCreated {
			return fmt.Errorf("%w: status is %s", ErrInvalidState, b.Status)
		}

		b.Status = models.BatchProcessing
		b.StartedAt = &now
		b.Metrics.StartTime = &now
		for _, f := range b.Files {
			tasks = append(tasks, fileTask{id: f.ID, filename: f.Filename, transcript: f.Content})
		}
		job = b.Job.Clone()
		return nil
	})
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, batchID)
		}
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.setCancel(batchID, cancel)
	defer t.clearCancel(batchID)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing loop panicked: %v", r)
		}
		if err != nil {
			t.logger.Error(ctx, "Batch processing failed: %v", err)
			t.failBatch(batchID, err)
		}
	}()

	t.logger.Info(ctx, "Processing %d file(s)", len(tasks))
	return t.run(runCtx, batchID, tasks, job)
}

func (t *implTracker) run(ctx context.Context, batchID string, tasks []fileTask, job *models.JobConfig) error {
	for i, task := range tasks {
		if i > 0 && t.opts.FileDelay > 0 {
			select {
			case <-time.After(t.opts.FileDelay):
			case <-ctx.Done():
			}
		}

		b, err := t.registry.Get(batchID)
		if errors.Is(err, registry.ErrNotFound) {
			t.logger.Warn(ctx, "Batch removed while processing")
			return nil
		}
		if err != nil {
			return err
		}
		if b.Status != models.BatchProcessing {
			t.logger.Info(ctx, "Stopping before %s: batch is %s", task.filename, b.Status)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := t.processFile(ctx, batchID, task, job); err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				return nil
			}
			return err
		}
	}

	err := t.registry.Update(batchID, func(b *models.Batch) error {
		if b.Status != models.BatchProcessing {
			return nil
		}
		now := t.now()
		b.Status = models.BatchCompleted
		b.CompletedAt = &now
		b.Metrics.EndTime = &now
		b.Metrics.ElapsedMs = now.Sub(*b.StartedAt).Milliseconds()
		b.Metrics.EstimatedRemainingMs = 0
		return nil
	})
	if err != nil && !errors.Is(err, registry.ErrNotFound) {
		return err
	}

	t.logger.Info(ctx, "Batch finished")
	return nil
}

// processFile fans one transcript out to every provider and records the outcome
func (t *implTracker) processFile(ctx context.Context, batchID string, task fileTask, job *models.JobConfig) error {
	err := t.registry.Update(batchID, func(b *models.Batch) error {
		f := b.File(task.id)
		if f == nil {
			return fmt.Errorf("file %s missing from batch", task.id)
		}
		if f.Status != models.FilePending {
			return fmt.Errorf("file %s is %s, expected %s", task.filename, f.Status, models.FilePending)
		}
		now := t.now()
		f.Status = models.FileProcessing
		f.StartedAt = &now
		b.Metrics.Pending--
		b.Metrics.Processing++
		return nil
	})
	if err != nil {
		return err
	}

	t.logger.Info(ctx, "Analyzing %s", task.filename)
	t.processor.Process(ctx, processor.Request{
		Filename:   task.filename,
		Transcript: task.transcript,
		Prompt:     job.Prompt,
		Models:     job.Models,
	}, func(name models.ProviderName, result *models.ProviderResult, err error) {
		if err != nil {
			return
		}
		if uerr := t.storeResult(batchID, task.id, name, result); uerr != nil {
			t.logger.Warn(ctx, "Dropping %s result for %s: %v", name, task.filename, uerr)
		}
	})

	var (
		status    models.FileStatus
		succeeded int
	)
	err = t.registry.Update(batchID, func(b *models.Batch) error {
		f := b.File(task.id)
		if f == nil {
			return fmt.Errorf("file %s missing from batch", task.id)
		}
		now := t.now()
		f.CompletedAt = &now
		if f.StartedAt != nil {
			f.DurationMs = now.Sub(*f.StartedAt).Milliseconds()
		}

		b.Metrics.Processing--
		if len(f.Results) > 0 {
			f.Status = models.FileCompleted
			b.Metrics.Completed++
		} else {
			f.Status = models.FileFailed
			f.Error = allProvidersFailed
			if ctx.Err() != nil {
				f.Error = "interrupted: " + ctx.Err().Error()
			}
			b.Metrics.Failed++
		}
		updateTimings(b, now)

		status, succeeded = f.Status, len(f.Results)
		return nil
	})
	if err != nil {
		return err
	}

	t.logger.Info(ctx, "%s %s (%d/%d providers)", task.filename, status, succeeded, len(models.Providers))
	return nil
}

// storeResult keeps the first result a provider reports for a file
func (t *implTracker) storeResult(batchID, fileID string, name models.ProviderName, result *models.ProviderResult) error {
	return t.registry.Update(batchID, func(b *models.Batch) error {
		f := b.File(fileID)
		if f == nil {
			return fmt.Errorf("file %s missing from batch", fileID)
		}
		if _, ok := f.Results[name]; ok {
			return nil
		}
		f.Results[name] = result
		b.Metrics.ProviderComplete[name]++
		return nil
	})
}

func updateTimings(b *models.Batch, now time.Time) {
	if b.StartedAt != nil {
		b.Metrics.ElapsedMs = now.Sub(*b.StartedAt).Milliseconds()
	}

	var total int64
	finished := 0
	for _, f := range b.Files {
		if f.Status.IsTerminal() {
			total += f.DurationMs
			finished++
		}
	}
	if finished == 0 {
		return
	}
	b.Metrics.AverageFileMs = total / int64(finished)
	b.Metrics.EstimatedRemainingMs = b.Metrics.AverageFileMs * int64(b.Metrics.Total-b.Metrics.Finished())
}

// failBatch forces a non-terminal batch into failed. A file caught mid-flight
// is failed with the cause; pending files are left untouched.
func (t *implTracker) failBatch(batchID string, cause error) {
	_ = t.registry.Update(batchID, func(b *models.Batch) error {
		now := t.now()
		for _, f := range b.Files {
			if f.Status != models.FileProcessing {
				continue
			}
			f.Status = models.FileFailed
			f.Error = cause.Error()
			f.CompletedAt = &now
			if f.StartedAt != nil {
				f.DurationMs = now.Sub(*f.StartedAt).Milliseconds()
			}
			b.Metrics.Processing--
			b.Metrics.Failed++
		}
		updateTimings(b, now)

		if b.Status.IsTerminal() {
			return nil
		}
		b.Status = models.BatchFailed
		b.Error = cause.Error()
		b.CompletedAt = &now
		b.Metrics.EndTime = &now
		return nil
	})
}

func (t *implTracker) setCancel(batchID string, cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancels[batchID] = cancel
}

func (t *implTracker) clearCancel(batchID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cancels, batchID)
}
