package artifacts

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements ArtifactsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new artifact row.
func (r *PGRepo) Create(ctx context.Context, a Artifact) error {
	const query = `
INSERT INTO artifacts (
    id,
    original_name,
    mime_type,
    size_bytes,
    storage_key,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		a.ID,
		a.OriginalName,
		a.MimeType,
		a.SizeBytes,
		a.StorageKey,
		a.CreatedAt,
	)
	return err
}

// GetByID fetches an artifact by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Artifact, error) {
	const query = `
SELECT id, original_name, mime_type, size_bytes, storage_key, created_at
FROM artifacts
WHERE id = $1`
	var a Artifact
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.OriginalName,
		&a.MimeType,
		&a.SizeBytes,
		&a.StorageKey,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, ErrNotFound
		}
		return Artifact{}, err
	}
	return a, nil
}
