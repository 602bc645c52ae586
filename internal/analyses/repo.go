package analyses

import "context"

// MutateFunc edits a request in place and reports whether it changed.
type MutateFunc func(a *AnalysisRequest) (changed bool, err error)

// Repo defines persistence operations for analysis requests.
type Repo interface {
	Create(ctx context.Context, a AnalysisRequest) error
	GetByID(ctx context.Context, id string) (AnalysisRequest, error)
	// Mutate runs fn on the current row under a lock held for the whole
	// read-modify-write, and returns the resulting state.
	Mutate(ctx context.Context, id string, fn MutateFunc) (AnalysisRequest, error)
	// ListPage returns requests newest first plus the total count.
	ListPage(ctx context.Context, offset, limit int) ([]AnalysisRequest, int64, error)
}
