// Package workerpool runs submitted jobs on a fixed number of goroutines
// behind a bounded queue. Submission never blocks the caller.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"speedr-backend/internal/shared/telemetry"
)

var (
	// ErrQueueFull is returned when the job queue has no spare capacity.
	ErrQueueFull = errors.New("worker pool queue is full")
	// ErrClosed is returned by Submit after Shutdown has started.
	ErrClosed = errors.New("worker pool is closed")
)

// Job is a unit of work. The context is cancelled when the pool is shut down
// past its deadline.
type Job func(ctx context.Context)

// Pool is a bounded goroutine pool.
type Pool struct {
	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts workers goroutines reading from a queue of queueSize jobs.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:   make(chan Job, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued jobs to drain. If ctx
// expires first, running jobs see their context cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.exec(job)
	}
}

func (p *Pool) exec(job Job) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("workerpool.panic", map[string]any{"panic": fmt.Sprint(r)})
		}
	}()
	job(p.ctx)
}
