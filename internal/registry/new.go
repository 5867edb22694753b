package registry

import (
	"sync"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

type implRegistry struct {
	mu      sync.RWMutex
	batches map[string]*models.Batch
	order   []string
}

// New creates an empty Registry.
func New() Registry {
	return &implRegistry{
		batches: make(map[string]*models.Batch),
	}
}
