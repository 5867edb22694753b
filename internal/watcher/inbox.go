package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/internal/tracker"
)

// NewInboxHandler submits each dropped transcript as a one-file batch under job and launches it.
func NewInboxHandler(tr tracker.Tracker, job *models.JobConfig, log logger.Logger) EventHandler {
	return func(ctx context.Context, filePath string) error {
		info, err := os.Stat(filePath)
		if err != nil {
			return fmt.Errorf("stat %s: %w", filePath, err)
		}
		if info.IsDir() {
			return nil
		}

		src := models.FileSource{
			Filename: filepath.Base(filePath),
			Size:     info.Size(),
			Open:     func() (io.ReadCloser, error) { return os.Open(filePath) },
		}
		id, err := tr.CreateBatch(ctx, []models.FileSource{src}, job.Clone())
		if err != nil {
			return fmt.Errorf("create batch: %w", err)
		}

		tr.Launch(id)
		log.Info(logger.WithBatchID(ctx, id), "Inbox submitted %s", src.Filename)
		return nil
	}
}
