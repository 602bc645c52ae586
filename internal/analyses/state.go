package analyses

import (
	"strings"
	"time"
)

func isTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

func transitionLabel(from, to string) string {
	if from == to {
		return ""
	}
	return strings.ToLower(from) + "->" + strings.ToLower(to)
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// applyStart moves a PENDING request to PROCESSING. Any other state is left
// alone so a redelivered dispatch never calls the worker twice.
func applyStart(a *AnalysisRequest, now time.Time) bool {
	if a.Status != StatusPending {
		return false
	}
	a.Status = StatusProcessing
	if a.StartedAt == nil {
		a.StartedAt = &now
	}
	return true
}

// applyProgress records a progress value. Terminal requests are sealed and
// ignore it. A PENDING request is implicitly started. Progress never moves
// backwards.
func applyProgress(a *AnalysisRequest, percent int, now time.Time) bool {
	if isTerminal(a.Status) {
		return false
	}
	applyStart(a, now)
	percent = clampPercent(percent)
	if percent > a.ProgressPercent {
		a.ProgressPercent = percent
	}
	return true
}

// applyOutcome seals a non-terminal request with the worker's outcome.
func applyOutcome(a *AnalysisRequest, outcome Outcome, now time.Time) bool {
	if isTerminal(a.Status) {
		return false
	}
	a.CompletedAt = &now
	if outcome.Success {
		res := outcome.Result
		a.Status = StatusCompleted
		a.Result = &res
		a.ErrorDetail = nil
		a.ProgressPercent = 100
		if a.StartedAt == nil {
			a.StartedAt = &now
		}
		return true
	}
	msg := outcome.ErrorMessage
	a.Status = StatusFailed
	a.Result = nil
	a.ErrorDetail = &msg
	return true
}
