package analyses

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

type progressPayload struct {
	ProgressPercent json.RawMessage `json:"progressPercent"`
}

// parseProgress accepts only a JSON integer that fits in 32 bits. Floats,
// strings and missing values are rejected.
func parseProgress(body []byte) (int, error) {
	var p progressPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return 0, invalid("body", "malformed JSON")
	}
	raw := strings.TrimSpace(string(p.ProgressPercent))
	if raw == "" || raw == "null" {
		return 0, invalid("progressPercent", "required")
	}
	if raw[0] != '-' && (raw[0] < '0' || raw[0] > '9') {
		return 0, invalid("progressPercent", "must be an integer")
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, invalid("progressPercent", "out of integer range")
		}
		return 0, invalid("progressPercent", "must be an integer")
	}
	return int(v), nil
}

type frameSeriesPayload struct {
	SampleRateHz      *float64        `json:"sampleRateHz"`
	PerFrameSpeed     []float64       `json:"perFrameSpeed"`
	SparsePoseSamples json.RawMessage `json:"sparsePoseSamples"`
}

// frameDataPayload is the worker's native frame layout.
type frameDataPayload struct {
	FPS           *float64        `json:"fps"`
	FrameSpeeds   []float64       `json:"frameSpeeds"`
	PoseLandmarks json.RawMessage `json:"poseLandmarks"`
}

type completionPayload struct {
	Success        *bool               `json:"success"`
	SpeedPrimary   *float64            `json:"speedPrimary"`
	SpeedSecondary *float64            `json:"speedSecondary"`
	SpeedKmh       *float64            `json:"speedKmh"`
	SpeedMph       *float64            `json:"speedMph"`
	Confidence     *float64            `json:"confidence"`
	ErrorMessage   *string             `json:"errorMessage"`
	FrameSeries    *frameSeriesPayload `json:"frameSeries"`
	FrameData      *frameDataPayload   `json:"frameData"`
}

// parseCompletion validates a completion callback and converts it to an
// Outcome. speedKmh/speedMph/frameData are accepted as aliases of
// speedPrimary/speedSecondary/frameSeries.
func parseCompletion(body []byte) (Outcome, error) {
	var p completionPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Outcome{}, invalid("body", "malformed JSON")
	}
	if p.Success == nil {
		return Outcome{}, invalid("success", "required")
	}

	if !*p.Success {
		if p.ErrorMessage == nil || strings.TrimSpace(*p.ErrorMessage) == "" {
			return Outcome{}, invalid("errorMessage", "required when success is false")
		}
		return Outcome{Success: false, ErrorMessage: strings.TrimSpace(*p.ErrorMessage)}, nil
	}

	primary := firstNonNil(p.SpeedPrimary, p.SpeedKmh)
	if primary == nil {
		return Outcome{}, invalid("speedPrimary", "required when success is true")
	}
	if *primary < 0 {
		return Outcome{}, invalid("speedPrimary", "must not be negative")
	}
	secondary := firstNonNil(p.SpeedSecondary, p.SpeedMph)
	if secondary != nil && *secondary < 0 {
		return Outcome{}, invalid("speedSecondary", "must not be negative")
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 1) {
		return Outcome{}, invalid("confidence", "must be between 0 and 1")
	}

	series, err := frameSeriesFrom(p)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Success: true,
		Result: Result{
			SpeedPrimary:   *primary,
			SpeedSecondary: secondary,
			Confidence:     p.Confidence,
			FrameSeries:    series,
		},
	}, nil
}

func frameSeriesFrom(p completionPayload) (*FrameSeries, error) {
	fs := p.FrameSeries
	if fs == nil && p.FrameData != nil {
		fs = &frameSeriesPayload{
			SampleRateHz:      p.FrameData.FPS,
			PerFrameSpeed:     p.FrameData.FrameSpeeds,
			SparsePoseSamples: p.FrameData.PoseLandmarks,
		}
	}
	if fs == nil {
		return nil, nil
	}
	if fs.SampleRateHz == nil || !(*fs.SampleRateHz > 0) {
		return nil, invalid("frameSeries.sampleRateHz", "must be positive")
	}
	if fs.PerFrameSpeed == nil {
		return nil, invalid("frameSeries.perFrameSpeed", "required")
	}
	out := &FrameSeries{
		SampleRateHz:  *fs.SampleRateHz,
		PerFrameSpeed: fs.PerFrameSpeed,
	}
	if raw := bytes.TrimSpace(fs.SparsePoseSamples); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if !json.Valid(raw) {
			return nil, invalid("frameSeries.sparsePoseSamples", "invalid JSON")
		}
		out.SparsePoseSamples = append(json.RawMessage(nil), raw...)
	}
	return out, nil
}

func firstNonNil(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
