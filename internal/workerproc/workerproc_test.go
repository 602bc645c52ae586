package workerproc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"speedr-backend/internal/analyses"
	"speedr-backend/internal/queue"
)

func TestParseMessage(t *testing.T) {
	if _, _, err := ParseMessage("  "); !errors.As(err, new(ErrEmptyBody)) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}

	_, meta, err := ParseMessage("{bad")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodyLen != 4 || len(meta.BodySHA) != 64 {
		t.Fatalf("unexpected meta %+v", meta)
	}

	_, _, err = ParseMessage(`{"requestId":"req-1","version":1}`)
	var missing ErrMissingAnalysisID
	if !errors.As(err, &missing) || missing.RequestID != "req-1" {
		t.Fatalf("expected ErrMissingAnalysisID with request id, got %v", err)
	}

	msg, _, err := ParseMessage(`{"analysisId":"a-1","requestId":"req-1","version":1}`)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.AnalysisID != "a-1" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

type dispatcherFunc func(ctx context.Context, id string) error

func (f dispatcherFunc) Dispatch(ctx context.Context, id string) error { return f(ctx, id) }

func TestHandleMessageClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "repo unavailable", err: errors.New("connection refused"), retryable: true},
		{name: "request gone", err: analyses.ErrNotFound, retryable: false},
		{name: "worker rejected", err: fmt.Errorf("%w: status 503", analyses.ErrDispatch), retryable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := dispatcherFunc(func(context.Context, string) error { return tt.err })
			err := HandleMessage(context.Background(), d, queue.Message{AnalysisID: "a-1", RequestID: "req-1"})
			var procErr ErrProcess
			if !errors.As(err, &procErr) {
				t.Fatalf("expected ErrProcess, got %v", err)
			}
			if procErr.Retryable != tt.retryable {
				t.Fatalf("expected retryable=%v", tt.retryable)
			}
			if procErr.AnalysisID != "a-1" || procErr.RequestID != "req-1" {
				t.Fatalf("unexpected ids %+v", procErr)
			}
		})
	}
}

func TestHandleMessageSuccess(t *testing.T) {
	var got string
	d := dispatcherFunc(func(ctx context.Context, id string) error {
		got = id
		return nil
	})
	if err := HandleMessage(context.Background(), d, queue.Message{AnalysisID: "a-9"}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got != "a-9" {
		t.Fatalf("expected dispatch of a-9, got %s", got)
	}
	if err := HandleMessage(context.Background(), nil, queue.Message{AnalysisID: "a-9"}); err == nil {
		t.Fatalf("expected error without dispatcher")
	}
}
