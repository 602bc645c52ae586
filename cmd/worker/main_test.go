package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"speedr-backend/internal/analyses"
	"speedr-backend/internal/queue"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeDispatcher struct {
	err error
	ids []string
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, id string) error {
	f.ids = append(f.ids, id)
	return f.err
}

func dispatchMessage(t *testing.T, id, receipt string) sqstypes.Message {
	t.Helper()
	body, err := queue.EncodeMessage(queue.Message{AnalysisID: id, RequestID: "req-" + id, Version: queue.MessageVersion})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return sqstypes.Message{
		MessageId:     aws.String("m-" + id),
		ReceiptHandle: aws.String(receipt),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func TestWorkerDeletesMessageAfterDispatch(t *testing.T) {
	client := &fakeSQS{}
	d := &fakeDispatcher{}

	handleMessage(context.Background(), client, "queue", d, dispatchMessage(t, "analysis-1", "r1"))

	if len(d.ids) != 1 || d.ids[0] != "analysis-1" {
		t.Fatalf("expected dispatch of analysis-1, got %v", d.ids)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "r1" {
		t.Fatalf("expected delete of r1, got %v", client.deleted)
	}
}

func TestWorkerDeletesWhenDispatchSealedRequest(t *testing.T) {
	client := &fakeSQS{}
	d := &fakeDispatcher{err: fmt.Errorf("%w: worker unreachable", analyses.ErrDispatch)}

	handleMessage(context.Background(), client, "queue", d, dispatchMessage(t, "analysis-2", "r2"))

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete once dispatch sealed the request, got %d", len(client.deleted))
	}
}

func TestWorkerKeepsMessageOnRetryableFailure(t *testing.T) {
	client := &fakeSQS{}
	d := &fakeDispatcher{err: errors.New("database unavailable")}

	handleMessage(context.Background(), client, "queue", d, dispatchMessage(t, "analysis-3", "r3"))

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %d", len(client.deleted))
	}
}

func TestWorkerDeletesUnrecoverableMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{bad-json"},
		{name: "empty body", body: "   "},
		{name: "missing analysis id", body: `{"requestId":"req-1","version":1}`},
		{name: "future version", body: `{"analysisId":"a-1","version":9}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeSQS{}
			d := &fakeDispatcher{}
			msg := sqstypes.Message{
				MessageId:     aws.String("m"),
				ReceiptHandle: aws.String("r"),
				Body:          aws.String(tt.body),
			}

			handleMessage(context.Background(), client, "queue", d, msg)

			if len(client.deleted) != 1 {
				t.Fatalf("expected delete, got %d", len(client.deleted))
			}
			if len(d.ids) != 0 {
				t.Fatalf("dispatcher must not run")
			}
		})
	}
}

func TestReceiveCount(t *testing.T) {
	if got := receiveCount(sqstypes.Message{}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := receiveCount(sqstypes.Message{Attributes: map[string]string{"ApproximateReceiveCount": "3"}}); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}
