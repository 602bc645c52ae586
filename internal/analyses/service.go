package analyses

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"speedr-backend/internal/shared/metrics"
	"speedr-backend/internal/shared/telemetry"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxErrorDetail  = 500
)

// ArtifactRef is what the orchestrator needs to know about an artifact.
type ArtifactRef struct {
	ID      string
	Name    string
	Locator string
}

// ArtifactResolver looks up artifacts. Unknown IDs return an error matching
// ErrNotFound.
type ArtifactResolver interface {
	Resolve(ctx context.Context, artifactID string) (ArtifactRef, error)
}

// DispatchCall is the single outbound request to the worker.
type DispatchCall struct {
	RequestID             string
	TraceID               string
	SportType             string
	ArtifactLocator       string
	CalibrationHints      *CalibrationHints
	ProgressCallbackURL   string
	CompletionCallbackURL string
}

// Worker performs the outbound dispatch call.
type Worker interface {
	Dispatch(ctx context.Context, call DispatchCall) error
}

// DispatchQueue is where Create hands new requests off. Enqueue must not
// block on the worker.
type DispatchQueue interface {
	Enqueue(ctx context.Context, requestID string) error
}

// CreateInput holds the parameters of a new analysis request.
type CreateInput struct {
	ArtifactID       string
	SportType        string
	CalibrationHints *CalibrationHints
}

// Service orchestrates the analysis request lifecycle.
type Service struct {
	Repo          Repo
	Artifacts     ArtifactResolver
	Worker        Worker
	Queue         DispatchQueue
	PublicBaseURL string
	SupportsSport func(sportType string) bool
	Now           func() time.Time
}

// Create persists a PENDING request and submits it for dispatch. It returns
// as soon as the submission is accepted; saturation or enqueue errors seal
// the request FAILED and the sealed snapshot is returned without an error.
func (s *Service) Create(ctx context.Context, in CreateInput) (AnalysisRequest, error) {
	artifactID := strings.TrimSpace(in.ArtifactID)
	if artifactID == "" {
		return AnalysisRequest{}, invalid("artifactId", "required")
	}
	sport := strings.ToUpper(strings.TrimSpace(in.SportType))
	if sport == "" {
		sport = DefaultSportType
	}
	if s.SupportsSport != nil && !s.SupportsSport(sport) {
		return AnalysisRequest{}, invalid("sportType", "unsupported sport type "+sport)
	}
	if err := validateHints(in.CalibrationHints); err != nil {
		return AnalysisRequest{}, err
	}

	artifact, err := s.Artifacts.Resolve(ctx, artifactID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AnalysisRequest{}, ErrArtifactNotFound
		}
		return AnalysisRequest{}, fmt.Errorf("resolve artifact: %w", err)
	}

	a := AnalysisRequest{
		ID:               uuid.NewString(),
		ArtifactID:       artifact.ID,
		ArtifactName:     artifact.Name,
		ArtifactLocator:  artifact.Locator,
		SportType:        sport,
		CalibrationHints: in.CalibrationHints,
		Status:           StatusPending,
		CreatedAt:        s.now(),
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return AnalysisRequest{}, err
	}
	metrics.IncAnalysisCreated()
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"analysis_id":       a.ID,
		"artifact_id":       a.ArtifactID,
		"status":            StatusPending,
		"status_transition": "none->pending",
	})

	if s.Queue == nil {
		return s.failDispatch(ctx, a, errors.New("dispatch queue not configured")), nil
	}
	if err := s.Queue.Enqueue(ctx, a.ID); err != nil {
		return s.failDispatch(ctx, a, err), nil
	}
	return a, nil
}

// Dispatch starts a PENDING request and calls the worker once. Requests that
// are no longer PENDING are skipped. A failed call seals the request FAILED
// and returns an error wrapping ErrDispatch.
func (s *Service) Dispatch(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	var started bool
	a, err := s.Repo.Mutate(ctx, id, func(a *AnalysisRequest) (bool, error) {
		started = applyStart(a, s.now())
		return started, nil
	})
	if err != nil {
		return fmt.Errorf("start analysis %s: %w", id, err)
	}
	if !started {
		telemetry.Info("analysis.dispatch_skipped", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": id,
			"status":      a.Status,
		})
		return nil
	}
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"analysis_id":       a.ID,
		"artifact_id":       a.ArtifactID,
		"status":            StatusProcessing,
		"status_transition": "pending->processing",
	})

	call := DispatchCall{
		RequestID:             a.ID,
		TraceID:               requestIDFromContext(ctx),
		SportType:             a.SportType,
		ArtifactLocator:       a.ArtifactLocator,
		CalibrationHints:      a.CalibrationHints,
		ProgressCallbackURL:   s.callbackURL(a.ID, "progress"),
		CompletionCallbackURL: s.callbackURL(a.ID, "callback"),
	}
	if s.Worker == nil {
		err = errors.New("worker client not configured")
	} else {
		err = s.Worker.Dispatch(ctx, call)
	}
	if err != nil {
		s.failDispatch(ctx, a, err)
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	metrics.IncAnalysisDispatched()
	telemetry.Info("analysis.dispatched", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"analysis_id": a.ID,
	})
	return nil
}

// UpdateProgress records worker progress. Values are clamped to [0,100].
// Sealed requests ignore it without error.
func (s *Service) UpdateProgress(ctx context.Context, id string, percent int) (Change, error) {
	if !validID(id) {
		return Change{}, ErrNotFound
	}
	var from string
	var applied bool
	a, err := s.Repo.Mutate(ctx, id, func(a *AnalysisRequest) (bool, error) {
		from = a.Status
		before := *a
		applied = applyProgress(a, percent, s.now())
		return applied && (a.Status != before.Status || a.ProgressPercent != before.ProgressPercent), nil
	})
	if err != nil {
		return Change{}, err
	}

	change := Change{Request: a, Applied: applied, Transition: transitionLabel(from, a.Status)}
	if !applied {
		telemetry.Info("analysis.progress_ignored", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": id,
			"status":      a.Status,
			"progress":    percent,
		})
		return change, nil
	}
	metrics.IncProgressUpdate()
	if change.Transition != "" {
		telemetry.Info("analysis.status", map[string]any{
			"request_id":        requestIDFromContext(ctx),
			"analysis_id":       id,
			"status":            a.Status,
			"status_transition": change.Transition,
			"reason":            "progress_before_dispatch",
		})
	}
	return change, nil
}

// Complete seals the request with the worker's outcome. Only the first
// terminal outcome is kept; later ones are logged and ignored.
func (s *Service) Complete(ctx context.Context, id string, outcome Outcome) (Change, error) {
	if !validID(id) {
		return Change{}, ErrNotFound
	}
	if !outcome.Success {
		outcome.ErrorMessage = truncate(outcome.ErrorMessage, maxErrorDetail)
	}
	var from string
	a, err := s.Repo.Mutate(ctx, id, func(a *AnalysisRequest) (bool, error) {
		from = a.Status
		return applyOutcome(a, outcome, s.now()), nil
	})
	if err != nil {
		return Change{}, err
	}
	if isTerminal(from) {
		metrics.IncCallbackIgnored()
		telemetry.Info("analysis.callback_ignored", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": id,
			"status":      a.Status,
			"success":     outcome.Success,
		})
		return Change{Request: a}, nil
	}
	s.recordTerminal(ctx, a, from)
	return Change{Request: a, Applied: true, Transition: transitionLabel(from, a.Status)}, nil
}

// Get returns the current snapshot of a request.
func (s *Service) Get(ctx context.Context, id string) (AnalysisRequest, error) {
	if !validID(id) {
		return AnalysisRequest{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// History returns one page of requests sorted by creation time descending.
func (s *Service) History(ctx context.Context, page, size int) (Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	items, total, err := s.Repo.ListPage(ctx, page*size, size)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Items:         items,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    int(math.Ceil(float64(total) / float64(size))),
	}, nil
}

// failDispatch seals the request FAILED after a dispatch failure and returns
// its resulting state, or last if the seal itself could not be written. It
// runs detached from ctx's cancellation so the request is never left in
// PROCESSING because the caller went away.
func (s *Service) failDispatch(ctx context.Context, last AnalysisRequest, cause error) AnalysisRequest {
	id := last.ID
	detail := truncate("dispatch failed: "+cause.Error(), maxErrorDetail)
	sealCtx := detachWithRequestID(context.Background(), ctx)

	metrics.IncAnalysisDispatchFailed()
	telemetry.Error("analysis.dispatch_failed", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"analysis_id": id,
		"error":       cause,
	})

	var from string
	a, err := s.Repo.Mutate(sealCtx, id, func(a *AnalysisRequest) (bool, error) {
		from = a.Status
		return applyOutcome(a, Outcome{Success: false, ErrorMessage: detail}, s.now()), nil
	})
	if err != nil {
		telemetry.Error("analysis.seal_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": id,
			"error":       err,
		})
		return last
	}
	if !isTerminal(from) {
		s.recordTerminal(ctx, a, from)
	}
	return a
}

func (s *Service) recordTerminal(ctx context.Context, a AnalysisRequest, from string) {
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"analysis_id":       a.ID,
		"artifact_id":       a.ArtifactID,
		"status":            a.Status,
		"status_transition": transitionLabel(from, a.Status),
	}
	if a.StartedAt != nil && a.CompletedAt != nil {
		ms := durationMs(*a.StartedAt, *a.CompletedAt)
		fields["duration_ms"] = ms
		metrics.ObserveAnalysisDurationMs(ms)
	}
	if a.Status == StatusCompleted {
		metrics.IncAnalysisCompleted()
	} else {
		metrics.IncAnalysisFailed()
	}
	telemetry.Info("analysis.status", fields)
}

func (s *Service) callbackURL(id, kind string) string {
	base := strings.TrimRight(s.PublicBaseURL, "/")
	return fmt.Sprintf("%s/api/v1/analysis/%s/%s", base, id, kind)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateHints(h *CalibrationHints) error {
	if h == nil {
		return nil
	}
	if h.ReferenceLengthCm != nil && !(*h.ReferenceLengthCm > 0) {
		return invalid("referenceLengthCm", "must be positive")
	}
	if h.PlayerHeightCm != nil && !(*h.PlayerHeightCm > 0) {
		return invalid("playerHeightCm", "must be positive")
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

func durationMs(start, end time.Time) float64 {
	return float64(end.Sub(start).Microseconds()) / 1000.0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
