package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"speedr-backend/internal/analyses"
	"speedr-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingAnalysisID indicates a message missing the analysis id.
type ErrMissingAnalysisID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingAnalysisID) Error() string { return "missing analysis id" }

// ErrProcess indicates dispatch failed after the message parsed. Retryable
// is false when redelivery cannot change the outcome.
type ErrProcess struct {
	AnalysisID string
	RequestID  string
	Retryable  bool
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "dispatch analysis"
	}
	return "dispatch analysis: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Dispatcher hands one pending analysis request to the speed worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string) error
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.AnalysisID) == "" {
		return msg, meta, ErrMissingAnalysisID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage dispatches a decoded message. A request that no longer
// exists, or whose dispatch already sealed it FAILED, is not retryable.
func HandleMessage(ctx context.Context, d Dispatcher, msg queue.Message) error {
	if d == nil {
		return errors.New("dispatcher not configured")
	}
	if strings.TrimSpace(msg.AnalysisID) == "" {
		return ErrMissingAnalysisID{RequestID: msg.RequestID}
	}

	ctx = analyses.WithRequestID(ctx, msg.RequestID)
	if err := d.Dispatch(ctx, msg.AnalysisID); err != nil {
		retryable := !errors.Is(err, analyses.ErrNotFound) && !errors.Is(err, analyses.ErrDispatch)
		return ErrProcess{AnalysisID: msg.AnalysisID, RequestID: msg.RequestID, Retryable: retryable, Err: err}
	}
	return nil
}
