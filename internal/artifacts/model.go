package artifacts

import "time"

// Artifact is an uploaded video. It is immutable once created.
type Artifact struct {
	ID           string
	OriginalName string
	MimeType     string
	SizeBytes    int64
	StorageKey   string
	CreatedAt    time.Time
}
