package speedworker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDispatchPostsExpectedBody(t *testing.T) {
	var gotPath string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ref := 182.9
	c := NewClient(srv.URL+"/", time.Second)
	err := c.Dispatch(context.Background(), Request{
		SportType:             SportIceHockey,
		RequestID:             "req-1",
		ArtifactLocator:       "/data/videos/a.mp4",
		CalibrationHints:      &CalibrationHints{ReferenceLengthCm: &ref},
		ProgressCallbackURL:   "http://api/api/v1/analysis/req-1/progress",
		CompletionCallbackURL: "http://api/api/v1/analysis/req-1/callback",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if gotPath != "/analyze/ice-hockey" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	for _, key := range []string{"requestId", "artifactLocator", "calibrationHints", "progressCallbackUrl", "completionCallbackUrl"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing body field %s", key)
		}
	}
	hints := got["calibrationHints"].(map[string]any)
	if hints["referenceLengthCm"] != 182.9 {
		t.Fatalf("unexpected hints %v", hints)
	}
	if _, ok := hints["playerHeightCm"]; ok {
		t.Fatalf("expected absent hint to be omitted")
	}
}

func TestDispatchOmitsNilHints(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		raw = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, time.Second).Dispatch(context.Background(), Request{SportType: SportIceHockey, RequestID: "r"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if strings.Contains(raw, "calibrationHints") {
		t.Fatalf("expected calibrationHints to be omitted, got %s", raw)
	}
}

func TestDispatchForwardsTraceID(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if err := c.Dispatch(context.Background(), Request{SportType: SportIceHockey, RequestID: "analysis-1", TraceID: "trace-1"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := c.Dispatch(context.Background(), Request{SportType: SportIceHockey, RequestID: "analysis-2"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(got) != 2 || got[0] != "trace-1" || got[1] != "" {
		t.Fatalf("expected X-Request-Id [trace-1, \"\"], got %q", got)
	}
}

func TestDispatchNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "video_path is required", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Dispatch(context.Background(), Request{SportType: SportIceHockey, RequestID: "r"})
	if err == nil {
		t.Fatalf("expected error for 400")
	}
	if !strings.Contains(err.Error(), "status 400") || !strings.Contains(err.Error(), "video_path is required") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestDispatchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	err := NewClient(srv.URL, 50*time.Millisecond).Dispatch(context.Background(), Request{SportType: SportIceHockey, RequestID: "r"})
	if err == nil || !strings.HasPrefix(err.Error(), "worker request timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !isTimeout(err) {
		t.Fatalf("expected wrapped error to report Timeout(), got %v", err)
	}
}

func TestDispatchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url, time.Second).Dispatch(context.Background(), Request{SportType: SportIceHockey, RequestID: "r"})
	if err == nil || !strings.HasPrefix(err.Error(), "worker unreachable") {
		t.Fatalf("expected unreachable error, got %v", err)
	}
}

func TestDispatchUnknownSport(t *testing.T) {
	err := NewClient("http://localhost:1", time.Second).Dispatch(context.Background(), Request{SportType: "CURLING"})
	if !errors.Is(err, ErrUnsupportedSport) {
		t.Fatalf("expected ErrUnsupportedSport, got %v", err)
	}
	if Supports("CURLING") || !Supports(SportIceHockey) {
		t.Fatalf("unexpected Supports results")
	}
}
