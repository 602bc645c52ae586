package analyses

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores analysis requests in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.Mutex
	byID map[string]AnalysisRequest
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]AnalysisRequest),
	}
}

// Create stores the request.
func (r *MemoryRepo) Create(ctx context.Context, a AnalysisRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID] = a
	return nil
}

// GetByID returns a request by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (AnalysisRequest, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisRequest{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return AnalysisRequest{}, ErrNotFound
	}
	return a, nil
}

// Mutate applies fn while holding the repo lock.
func (r *MemoryRepo) Mutate(ctx context.Context, id string, fn MutateFunc) (AnalysisRequest, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisRequest{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[id]
	if !ok {
		return AnalysisRequest{}, ErrNotFound
	}
	next := current
	changed, err := fn(&next)
	if err != nil {
		return current, err
	}
	if !changed {
		return current, nil
	}
	r.byID[id] = next
	return next, nil
}

// ListPage returns requests newest first with offset/limit.
func (r *MemoryRepo) ListPage(ctx context.Context, offset, limit int) ([]AnalysisRequest, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.Lock()
	all := make([]AnalysisRequest, 0, len(r.byID))
	for _, a := range r.byID {
		all = append(all, a)
	}
	r.mu.Unlock()

	total := int64(len(all))
	if offset >= len(all) {
		return []AnalysisRequest{}, total, nil
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}
