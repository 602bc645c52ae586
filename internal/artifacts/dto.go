package artifacts

import "time"

// ArtifactResponse is the outward-facing representation of an artifact.
type ArtifactResponse struct {
	ArtifactID   string    `json:"artifactId"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	StreamURL    string    `json:"streamUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toResponse(a Artifact) ArtifactResponse {
	return ArtifactResponse{
		ArtifactID:   a.ID,
		OriginalName: a.OriginalName,
		MimeType:     a.MimeType,
		SizeBytes:    a.SizeBytes,
		StreamURL:    "/api/v1/artifacts/" + a.ID + "/stream",
		CreatedAt:    a.CreatedAt,
	}
}
