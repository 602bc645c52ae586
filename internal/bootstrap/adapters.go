package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"speedr-backend/internal/analyses"
	"speedr-backend/internal/artifacts"
	"speedr-backend/internal/speedworker"
)

type artifactResolver struct {
	svc *artifacts.Service
}

func (r artifactResolver) Resolve(ctx context.Context, artifactID string) (analyses.ArtifactRef, error) {
	a, err := r.svc.Get(ctx, artifactID)
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			return analyses.ArtifactRef{}, analyses.ErrArtifactNotFound
		}
		return analyses.ArtifactRef{}, fmt.Errorf("resolve artifact: %w", err)
	}
	return analyses.ArtifactRef{
		ID:      a.ID,
		Name:    a.OriginalName,
		Locator: r.svc.Locator(a),
	}, nil
}

type workerAdapter struct {
	client *speedworker.Client
}

func (w workerAdapter) Dispatch(ctx context.Context, call analyses.DispatchCall) error {
	req := speedworker.Request{
		SportType:             call.SportType,
		RequestID:             call.RequestID,
		TraceID:               call.TraceID,
		ArtifactLocator:       call.ArtifactLocator,
		ProgressCallbackURL:   call.ProgressCallbackURL,
		CompletionCallbackURL: call.CompletionCallbackURL,
	}
	if call.CalibrationHints != nil {
		req.CalibrationHints = &speedworker.CalibrationHints{
			ReferenceLengthCm: call.CalibrationHints.ReferenceLengthCm,
			PlayerHeightCm:    call.CalibrationHints.PlayerHeightCm,
		}
	}
	return w.client.Dispatch(ctx, req)
}
