package analyses

import (
	"context"
	"errors"
	"fmt"

	"speedr-backend/internal/shared/telemetry"
	"speedr-backend/internal/shared/workerpool"
)

// Dispatcher runs the dispatch routine for one request.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string) error
}

// Submitter accepts background jobs without blocking.
type Submitter interface {
	Submit(job workerpool.Job) error
}

// PoolQueue dispatches requests on an in-process bounded worker pool.
type PoolQueue struct {
	Pool       Submitter
	Dispatcher Dispatcher
}

// Enqueue submits the dispatch of id. A full pool is reported as ErrDispatch.
func (q *PoolQueue) Enqueue(ctx context.Context, id string) error {
	if q.Pool == nil || q.Dispatcher == nil {
		return fmt.Errorf("%w: pool queue not configured", ErrDispatch)
	}
	requestID := requestIDFromContext(ctx)
	err := q.Pool.Submit(func(jobCtx context.Context) {
		jobCtx = WithRequestID(jobCtx, requestID)
		if err := q.Dispatcher.Dispatch(jobCtx, id); err != nil && !errors.Is(err, ErrDispatch) {
			telemetry.Error("analysis.dispatch_error", map[string]any{
				"request_id":  requestID,
				"analysis_id": id,
				"error":       err,
			})
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	return nil
}

// Publisher hands a dispatch to an external broker.
type Publisher interface {
	Publish(ctx context.Context, analysisID, requestID string) error
}

// BrokerQueue defers dispatch to a separate consumer process reading from a
// broker. Redelivered messages are harmless since Dispatch only acts on
// PENDING requests.
type BrokerQueue struct {
	Publisher Publisher
}

// Enqueue publishes the dispatch of id.
func (q *BrokerQueue) Enqueue(ctx context.Context, id string) error {
	if q.Publisher == nil {
		return fmt.Errorf("%w: broker queue not configured", ErrDispatch)
	}
	if err := q.Publisher.Publish(ctx, id, requestIDFromContext(ctx)); err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	return nil
}
