package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"speedr-backend/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT r.id, r.artifact_id, COALESCE(a.original_name, ''), r.artifact_locator, r.sport_type,
       r.calibration_hints, r.status, r.progress, r.error_detail, r.result,
       r.created_at, r.started_at, r.completed_at
FROM analysis_requests r
LEFT JOIN artifacts a ON a.id = r.artifact_id`

// Create inserts a new analysis request.
func (r *PGRepo) Create(ctx context.Context, a AnalysisRequest) error {
	const query = `
INSERT INTO analysis_requests (
    id,
    artifact_id,
    artifact_locator,
    sport_type,
    calibration_hints,
    status,
    progress,
    error_detail,
    result,
    created_at,
    started_at,
    completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	hints, err := encodeJSON(a.CalibrationHints)
	if err != nil {
		return fmt.Errorf("encode calibration hints: %w", err)
	}
	result, err := encodeJSON(a.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		a.ID,
		a.ArtifactID,
		a.ArtifactLocator,
		a.SportType,
		hints,
		a.Status,
		a.ProgressPercent,
		nullString(a.ErrorDetail),
		result,
		a.CreatedAt,
		nullTime(a.StartedAt),
		nullTime(a.CompletedAt),
	)
	return err
}

// GetByID fetches a request joined with its artifact's display name.
func (r *PGRepo) GetByID(ctx context.Context, id string) (AnalysisRequest, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE r.id = $1`, id)
	a, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AnalysisRequest{}, ErrNotFound
		}
		return AnalysisRequest{}, err
	}
	return a, nil
}

// Mutate locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (r *PGRepo) Mutate(ctx context.Context, id string, fn MutateFunc) (AnalysisRequest, error) {
	var out AnalysisRequest
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, selectColumns+`
WHERE r.id = $1
FOR UPDATE OF r`, id)
		current, err := scanRequest(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		next := current
		changed, err := fn(&next)
		if err != nil {
			return err
		}
		if !changed {
			out = current
			return nil
		}

		result, err := encodeJSON(next.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		const update = `
UPDATE analysis_requests
SET status = $2,
    progress = $3,
    error_detail = $4,
    result = $5,
    started_at = $6,
    completed_at = $7
WHERE id = $1`
		if _, err := tx.ExecContext(
			ctx,
			update,
			next.ID,
			next.Status,
			next.ProgressPercent,
			nullString(next.ErrorDetail),
			result,
			nullTime(next.StartedAt),
			nullTime(next.CompletedAt),
		); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return AnalysisRequest{}, err
	}
	return out, nil
}

// ListPage returns a page of requests newest first and the total count.
func (r *PGRepo) ListPage(ctx context.Context, offset, limit int) ([]AnalysisRequest, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_requests`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx, selectColumns+`
ORDER BY r.created_at DESC, r.id DESC
LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]AnalysisRequest, 0, limit)
	for rows.Next() {
		a, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (AnalysisRequest, error) {
	var a AnalysisRequest
	var hintsRaw, resultRaw []byte
	var errorDetail sql.NullString
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.ArtifactID,
		&a.ArtifactName,
		&a.ArtifactLocator,
		&a.SportType,
		&hintsRaw,
		&a.Status,
		&a.ProgressPercent,
		&errorDetail,
		&resultRaw,
		&a.CreatedAt,
		&startedAt,
		&completedAt,
	); err != nil {
		return AnalysisRequest{}, err
	}
	if len(hintsRaw) > 0 {
		var hints CalibrationHints
		if err := json.Unmarshal(hintsRaw, &hints); err != nil {
			return AnalysisRequest{}, fmt.Errorf("decode calibration hints: %w", err)
		}
		a.CalibrationHints = &hints
	}
	if len(resultRaw) > 0 {
		var res Result
		if err := json.Unmarshal(resultRaw, &res); err != nil {
			return AnalysisRequest{}, fmt.Errorf("decode result: %w", err)
		}
		a.Result = &res
	}
	if errorDetail.Valid {
		s := errorDetail.String
		a.ErrorDetail = &s
	}
	if startedAt.Valid {
		t := startedAt.Time
		a.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	return a, nil
}

func encodeJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
