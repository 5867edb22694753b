package registry

import (
	"errors"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

var (
	ErrNotFound  = errors.New("batch not found")
	ErrDuplicate = errors.New("batch already registered")
)

// Registry is the in-memory store that owns every batch for the lifetime of the process.
// Values handed out are deep copies; all mutation goes through Update.
type Registry interface {
	Add(batch *models.Batch) error
	Get(id string) (*models.Batch, error)
	// Update runs fn on the stored batch while holding the write lock.
	// An error returned by fn is passed through unchanged.
	Update(id string, fn func(*models.Batch) error) error
	// Remove deletes the batch when guard (if non-nil) accepts it.
	Remove(id string, guard func(*models.Batch) bool) bool
	List() []*models.Batch
	Len() int
	Clear()
}
