package artifacts

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of ArtifactsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Artifact
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Artifact),
	}
}

// Create stores a new artifact. Existing IDs are never overwritten.
func (r *MemoryRepo) Create(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[a.ID]; exists {
		return ErrInvalidInput
	}
	r.data[a.ID] = a
	return nil
}

// GetByID returns an artifact by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.data[id]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return a, nil
}
