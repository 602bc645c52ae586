// Package speedworker is the HTTP client for the external video speed
// analysis worker.
package speedworker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// SportIceHockey is the only sport the worker currently analyzes.
	SportIceHockey = "ICE_HOCKEY"

	defaultTimeout  = 10 * time.Second
	maxErrorBodyLen = 2 << 10
)

// ErrUnsupportedSport is returned for sports without a registered analyzer.
var ErrUnsupportedSport = errors.New("unsupported sport type")

// analyzerPaths maps a sport type to the worker endpoint that analyzes it.
var analyzerPaths = map[string]string{
	SportIceHockey: "/analyze/ice-hockey",
}

// CalibrationHints help the worker convert pixel motion into real distances.
type CalibrationHints struct {
	ReferenceLengthCm *float64 `json:"referenceLengthCm,omitempty"`
	PlayerHeightCm    *float64 `json:"playerHeightCm,omitempty"`
}

// Request is a single dispatch to the worker.
type Request struct {
	SportType             string
	RequestID             string
	TraceID               string // inbound HTTP request id, sent as X-Request-Id
	ArtifactLocator       string
	CalibrationHints      *CalibrationHints
	ProgressCallbackURL   string
	CompletionCallbackURL string
}

type dispatchBody struct {
	RequestID             string            `json:"requestId"`
	ArtifactLocator       string            `json:"artifactLocator"`
	CalibrationHints      *CalibrationHints `json:"calibrationHints,omitempty"`
	ProgressCallbackURL   string            `json:"progressCallbackUrl"`
	CompletionCallbackURL string            `json:"completionCallbackUrl"`
}

// Client posts analysis jobs to the worker.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a worker client. A non-positive timeout uses 10s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Supports reports whether a sport has a registered analyzer.
func Supports(sportType string) bool {
	_, ok := analyzerPaths[sportType]
	return ok
}

// Dispatch issues exactly one POST to the worker. Any transport error,
// timeout or non-2xx status is returned; nothing is retried.
func (c *Client) Dispatch(ctx context.Context, req Request) error {
	path, ok := analyzerPaths[req.SportType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedSport, req.SportType)
	}
	if c.baseURL == "" {
		return fmt.Errorf("worker base url is not configured")
	}

	payload, err := json.Marshal(dispatchBody{
		RequestID:             req.RequestID,
		ArtifactLocator:       req.ArtifactLocator,
		CalibrationHints:      req.CalibrationHints,
		ProgressCallbackURL:   req.ProgressCallbackURL,
		CompletionCallbackURL: req.CompletionCallbackURL,
	})
	if err != nil {
		return fmt.Errorf("encode dispatch body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build worker request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.TraceID != "" {
		httpReq.Header.Set("X-Request-Id", req.TraceID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("worker request timeout: %w", err)
		}
		return fmt.Errorf("worker unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			return fmt.Errorf("worker rejected dispatch: status %d", resp.StatusCode)
		}
		return fmt.Errorf("worker rejected dispatch: status %d: %s", resp.StatusCode, msg)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyLen))
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Health probes the worker's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("worker health status %d", resp.StatusCode)
	}
	return nil
}
