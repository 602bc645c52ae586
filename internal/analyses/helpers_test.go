package analyses

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeArtifacts struct {
	refs map[string]ArtifactRef
}

func (f *fakeArtifacts) Resolve(ctx context.Context, id string) (ArtifactRef, error) {
	ref, ok := f.refs[id]
	if !ok {
		return ArtifactRef{}, ErrNotFound
	}
	return ref, nil
}

type fakeWorker struct {
	mu    sync.Mutex
	calls []DispatchCall
	err   error
}

func (w *fakeWorker) Dispatch(ctx context.Context, call DispatchCall) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call)
	return w.err
}

func (w *fakeWorker) Calls() []DispatchCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]DispatchCall(nil), w.calls...)
}

// syncQueue dispatches inline, standing in for a pool that runs immediately.
type syncQueue struct {
	svc *Service
}

func (q *syncQueue) Enqueue(ctx context.Context, id string) error {
	_ = q.svc.Dispatch(ctx, id)
	return nil
}

// holdQueue accepts submissions but never runs them.
type holdQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *holdQueue) Enqueue(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

const testArtifactID = "0b7c6f52-8a0e-4d53-9a0a-8b7d1d5f4c11"

func newTestService(t *testing.T) (*Service, *fakeWorker) {
	t.Helper()
	worker := &fakeWorker{}
	clock := &fixedClock{now: time.Date(2026, time.February, 1, 10, 0, 0, 0, time.UTC)}
	svc := &Service{
		Repo: NewMemoryRepo(),
		Artifacts: &fakeArtifacts{refs: map[string]ArtifactRef{
			testArtifactID: {ID: testArtifactID, Name: "slapshot.mp4", Locator: "/data/videos/slapshot.mp4"},
		}},
		Worker:        worker,
		PublicBaseURL: "http://api.local:8080/",
		SupportsSport: func(s string) bool { return s == DefaultSportType },
		Now:           clock.Now,
	}
	svc.Queue = &holdQueue{}
	return svc, worker
}

func createPending(t *testing.T, svc *Service) AnalysisRequest {
	t.Helper()
	a, err := svc.Create(context.Background(), CreateInput{ArtifactID: testArtifactID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", a.Status)
	}
	return a
}

func mustGet(t *testing.T, svc *Service, id string) AnalysisRequest {
	t.Helper()
	a, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return a
}

func floatPtr(v float64) *float64 { return &v }

func successOutcome(speed float64) Outcome {
	return Outcome{Success: true, Result: Result{SpeedPrimary: speed, SpeedSecondary: floatPtr(speed * 0.621371), Confidence: floatPtr(0.9)}}
}

func randomID() string { return uuid.NewString() }
