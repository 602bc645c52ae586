package artifacts

import "context"

// ArtifactsRepo defines persistence operations for artifact metadata.
type ArtifactsRepo interface {
	Create(ctx context.Context, a Artifact) error
	GetByID(ctx context.Context, id string) (Artifact, error)
}
