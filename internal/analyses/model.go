package analyses

import (
	"encoding/json"
	"time"
)

const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// DefaultSportType is applied when a create request names no sport.
const DefaultSportType = "ICE_HOCKEY"

// CalibrationHints are optional real-world measurements passed to the worker.
type CalibrationHints struct {
	ReferenceLengthCm *float64 `json:"referenceLengthCm,omitempty"`
	PlayerHeightCm    *float64 `json:"playerHeightCm,omitempty"`
}

// FrameSeries is the per-frame speed time series produced by the worker.
type FrameSeries struct {
	SampleRateHz      float64         `json:"sampleRateHz"`
	PerFrameSpeed     []float64       `json:"perFrameSpeed"`
	SparsePoseSamples json.RawMessage `json:"sparsePoseSamples,omitempty"`
}

// Result is attached to a request once it completes successfully.
// SpeedPrimary is km/h and SpeedSecondary mph.
type Result struct {
	SpeedPrimary   float64      `json:"speedPrimary"`
	SpeedSecondary *float64     `json:"speedSecondary,omitempty"`
	Confidence     *float64     `json:"confidence,omitempty"`
	FrameSeries    *FrameSeries `json:"frameSeries,omitempty"`
}

// AnalysisRequest is one speed analysis of an artifact.
type AnalysisRequest struct {
	ID               string
	ArtifactID       string
	ArtifactName     string
	ArtifactLocator  string
	SportType        string
	CalibrationHints *CalibrationHints
	Status           string
	ProgressPercent  int
	Result           *Result
	ErrorDetail      *string
	CreatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// Outcome is the terminal report from the worker.
type Outcome struct {
	Success      bool
	Result       Result
	ErrorMessage string
}

// Page is one slice of the request history, newest first.
type Page struct {
	Items         []AnalysisRequest
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// Change describes the effect of a webhook on a request.
type Change struct {
	Request    AnalysisRequest
	Applied    bool
	Transition string
}
