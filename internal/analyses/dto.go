package analyses

import "time"

// ResultResponse exposes the result under both the generic and unit names.
type ResultResponse struct {
	SpeedPrimary   float64      `json:"speedPrimary"`
	SpeedSecondary *float64     `json:"speedSecondary,omitempty"`
	SpeedKmh       float64      `json:"speedKmh"`
	SpeedMph       *float64     `json:"speedMph,omitempty"`
	Confidence     *float64     `json:"confidence,omitempty"`
	FrameSeries    *FrameSeries `json:"frameSeries,omitempty"`
}

// AnalysisResponse is the snapshot returned by GET /analysis/:id.
type AnalysisResponse struct {
	AnalysisID       string            `json:"analysisId"`
	ArtifactID       string            `json:"artifactId"`
	ArtifactName     string            `json:"artifactName,omitempty"`
	SportType        string            `json:"sportType"`
	Status           string            `json:"status"`
	ProgressPercent  int               `json:"progressPercent"`
	CalibrationHints *CalibrationHints `json:"calibrationHints,omitempty"`
	Result           *ResultResponse   `json:"result,omitempty"`
	ErrorDetail      *string           `json:"errorDetail,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	StartedAt        *time.Time        `json:"startedAt,omitempty"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
}

// SummaryResponse is one history row.
type SummaryResponse struct {
	AnalysisID      string     `json:"analysisId"`
	ArtifactID      string     `json:"artifactId"`
	ArtifactName    string     `json:"artifactName"`
	SportType       string     `json:"sportType"`
	Status          string     `json:"status"`
	ProgressPercent int        `json:"progressPercent"`
	SpeedKmh        *float64   `json:"speedKmh,omitempty"`
	SpeedMph        *float64   `json:"speedMph,omitempty"`
	Confidence      *float64   `json:"confidence,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// PageResponse wraps a page of history rows.
type PageResponse struct {
	Items         []SummaryResponse `json:"items"`
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
}

func toResponse(a AnalysisRequest) AnalysisResponse {
	resp := AnalysisResponse{
		AnalysisID:       a.ID,
		ArtifactID:       a.ArtifactID,
		ArtifactName:     a.ArtifactName,
		SportType:        a.SportType,
		Status:           a.Status,
		ProgressPercent:  a.ProgressPercent,
		CalibrationHints: a.CalibrationHints,
		CreatedAt:        a.CreatedAt,
		StartedAt:        a.StartedAt,
		CompletedAt:      a.CompletedAt,
	}
	if a.Status == StatusCompleted && a.Result != nil {
		resp.Result = &ResultResponse{
			SpeedPrimary:   a.Result.SpeedPrimary,
			SpeedSecondary: a.Result.SpeedSecondary,
			SpeedKmh:       a.Result.SpeedPrimary,
			SpeedMph:       a.Result.SpeedSecondary,
			Confidence:     a.Result.Confidence,
			FrameSeries:    a.Result.FrameSeries,
		}
	}
	if a.Status == StatusFailed {
		resp.ErrorDetail = a.ErrorDetail
	}
	return resp
}

func toSummary(a AnalysisRequest) SummaryResponse {
	s := SummaryResponse{
		AnalysisID:      a.ID,
		ArtifactID:      a.ArtifactID,
		ArtifactName:    a.ArtifactName,
		SportType:       a.SportType,
		Status:          a.Status,
		ProgressPercent: a.ProgressPercent,
		CreatedAt:       a.CreatedAt,
		CompletedAt:     a.CompletedAt,
	}
	if a.Result != nil {
		speed := a.Result.SpeedPrimary
		s.SpeedKmh = &speed
		s.SpeedMph = a.Result.SpeedSecondary
		s.Confidence = a.Result.Confidence
	}
	return s
}

func toPageResponse(p Page) PageResponse {
	items := make([]SummaryResponse, 0, len(p.Items))
	for _, a := range p.Items {
		items = append(items, toSummary(a))
	}
	return PageResponse{
		Items:         items,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}
