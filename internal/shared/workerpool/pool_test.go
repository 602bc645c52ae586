package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsJobs(t *testing.T) {
	p := New(2, 8)
	var ran int32
	for i := 0; i < 5; i++ {
		if err := p.Submit(func(ctx context.Context) { atomic.AddInt32(&ran, 1) }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := atomic.LoadInt32(&ran); got != 5 {
		t.Fatalf("expected 5 jobs to run, got %d", got)
	}
}

func TestSubmitReturnsQueueFullWithoutBlocking(t *testing.T) {
	p := New(1, 1)
	release := make(chan struct{})
	started := make(chan struct{})

	if err := p.Submit(func(ctx context.Context) {
		close(started)
		<-release
	}); err != nil {
		t.Fatalf("Submit first: %v", err)
	}
	<-started
	if err := p.Submit(func(ctx context.Context) {}); err != nil {
		t.Fatalf("Submit second should fill the queue: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- p.Submit(func(ctx context.Context) {}) }()
	select {
	case err := <-done:
		if !errors.Is(err, ErrQueueFull) {
			t.Fatalf("expected ErrQueueFull, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Submit blocked on a full queue")
	}

	close(release)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := New(1, 1)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := p.Submit(func(ctx context.Context) {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	p := New(1, 2)
	var ran int32
	_ = p.Submit(func(ctx context.Context) { panic("boom") })
	_ = p.Submit(func(ctx context.Context) { atomic.StoreInt32(&ran, 1) })
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("expected job after panic to run")
	}
}
