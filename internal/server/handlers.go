package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nguyentantai21042004/insight-flow/internal/archive"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/internal/tracker"
)

// modelFields maps multipart form fields to the provider they configure.
var modelFields = map[models.ProviderName]string{
	models.ProviderOpenAI: "openaiModel",
	models.ProviderClaude: "claudeModel",
	models.ProviderGemini: "geminiModel",
}

type batchSummary struct {
	ID          string              `json:"id"`
	Status      models.BatchStatus  `json:"status"`
	TotalFiles  int                 `json:"totalFiles"`
	Filenames   []string            `json:"filenames"`
	Metrics     models.BatchMetrics `json:"metrics"`
	CreatedAt   time.Time           `json:"createdAt"`
	StartedAt   *time.Time          `json:"startedAt,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
	Error       string              `json:"error,omitempty"`
}

func (h *handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// Models returns the default model per provider
func (h *handler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": h.cfg.DefaultModels()})
}

// CreateBatch validates the upload, registers the batch and starts it in the background
func (h *handler) CreateBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "expected a multipart form")
		return
	}

	files := form.File["files"]
	if err := h.validateFiles(files); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	job := &models.JobConfig{
		JobDescription: c.PostForm("jobDescription"),
		Prompt:         c.PostForm("prompt"),
		Models:         make(map[models.ProviderName]string, len(modelFields)),
	}
	for name, field := range modelFields {
		job.Models[name] = c.PostForm(field)
	}
	if err := job.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	for name, model := range h.cfg.DefaultModels() {
		if _, ok := job.Models[name]; !ok {
			job.Models[name] = model
		}
	}

	sources := make([]models.FileSource, 0, len(files))
	for _, fh := range files {
		sources = append(sources, models.FileSource{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	ctx := c.Request.Context()
	id, err := h.tracker.CreateBatch(ctx, sources, job)
	if err != nil {
		if errors.Is(err, tracker.ErrNoFiles) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(ctx, "Create batch failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to read uploaded files")
		return
	}

	h.tracker.Launch(id)

	c.JSON(http.StatusAccepted, gin.H{
		"batchId":    id,
		"status":     models.BatchCreated,
		"totalFiles": len(sources),
	})
}

func (h *handler) validateFiles(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return errors.New("at least one file is required")
	}
	if len(files) > h.cfg.Upload.MaxFiles {
		return fmt.Errorf("too many files: %d (max %d)", len(files), h.cfg.Upload.MaxFiles)
	}
	for _, fh := range files {
		if !h.allowedExtension(fh.Filename) {
			return fmt.Errorf("%s: unsupported file type (allowed: %s)", fh.Filename, strings.Join(h.cfg.Upload.AllowedExtensions, ", "))
		}
		if fh.Size > h.cfg.Upload.MaxFileSize {
			return fmt.Errorf("%s: file exceeds %d bytes", fh.Filename, h.cfg.Upload.MaxFileSize)
		}
	}
	return nil
}

func (h *handler) allowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range h.cfg.Upload.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (h *handler) ListBatches(c *gin.Context) {
	batches := h.tracker.ListBatches()
	out := make([]batchSummary, 0, len(batches))
	for _, b := range batches {
		names := make([]string, 0, len(b.Files))
		for _, f := range b.Files {
			names = append(names, f.Filename)
		}
		out = append(out, batchSummary{
			ID:          b.ID,
			Status:      b.Status,
			TotalFiles:  b.Metrics.Total,
			Filenames:   names,
			Metrics:     b.Metrics,
			CreatedAt:   b.CreatedAt,
			StartedAt:   b.StartedAt,
			CompletedAt: b.CompletedAt,
			Error:       b.Error,
		})
	}
	c.JSON(http.StatusOK, gin.H{"batches": out})
}

func (h *handler) GetProgress(c *gin.Context) {
	progress, err := h.tracker.GetProgress(c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *handler) GetResults(c *gin.Context) {
	results, err := h.tracker.GetResults(c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Download archives the results of a finished batch
func (h *handler) Download(c *gin.Context) {
	format, err := archive.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.tracker.GetResults(c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	if !results.Status.IsTerminal() {
		respondError(c, http.StatusConflict, fmt.Sprintf("batch is %s; wait until it finishes", results.Status))
		return
	}

	data, err := archive.Build(*results, format)
	if err != nil {
		if errors.Is(err, archive.ErrNoResults) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error(c.Request.Context(), "Archive batch %s: %v", results.BatchID, err)
		respondError(c, http.StatusInternalServerError, "failed to build archive")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, archive.FileName(results.BatchID)))
	c.Data(http.StatusOK, "application/zip", data)
}

func (h *handler) CancelBatch(c *gin.Context) {
	id := c.Param("id")
	if h.tracker.CancelBatch(id) {
		c.JSON(http.StatusOK, gin.H{"batchId": id, "status": models.BatchCancelled})
		return
	}

	progress, err := h.tracker.GetProgress(id)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	respondError(c, http.StatusConflict, fmt.Sprintf("batch is already %s", progress.Status))
}

func (h *handler) DeleteBatch(c *gin.Context) {
	id := c.Param("id")
	if h.tracker.DeleteBatch(id) {
		c.JSON(http.StatusOK, gin.H{"batchId": id, "deleted": true})
		return
	}

	if _, err := h.tracker.GetProgress(id); err != nil {
		h.respondLookupError(c, err)
		return
	}
	respondError(c, http.StatusConflict, "batch is processing; cancel it first")
}

func (h *handler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, tracker.ErrNotFound) {
		respondError(c, http.StatusNotFound, "batch not found")
		return
	}
	h.logger.Error(c.Request.Context(), "Batch lookup failed: %v", err)
	respondError(c, http.StatusInternalServerError, "internal error")
}
