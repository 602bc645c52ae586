package queue

import (
	"context"
	"errors"
	"time"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Producer publishes dispatch messages through a Client.
type Producer struct {
	Client Client
	Now    func() time.Time
}

// Publish enqueues the dispatch of analysisID.
func (p *Producer) Publish(ctx context.Context, analysisID, requestID string) error {
	if p == nil || p.Client == nil {
		return errors.New("queue client not configured")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return p.Client.Send(ctx, Message{
		AnalysisID: analysisID,
		RequestID:  requestID,
		EnqueuedAt: now().UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	})
}
