package registry

import (
	"fmt"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

func (r *implRegistry) Add(batch *models.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.batches[batch.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, batch.ID)
	}
	r.batches[batch.ID] = batch.Clone()
	r.order = append(r.order, batch.ID)
	return nil
}

func (r *implRegistry) Get(id string) (*models.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b.Clone(), nil
}

func (r *implRegistry) Update(id string, fn func(*models.Batch) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fn(b)
}

func (r *implRegistry) Remove(id string, guard func(*models.Batch) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[id]
	if !ok {
		return false
	}
	if guard != nil && !guard(b) {
		return false
	}

	delete(r.batches, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns snapshots in creation order.
func (r *implRegistry) List() []*models.Batch {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Batch, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.batches[id].Clone())
	}
	return out
}

func (r *implRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.batches)
}

func (r *implRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = make(map[string]*models.Batch)
	r.order = nil
}
