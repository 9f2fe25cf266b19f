package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snaptaplaque/plateapi/internal/model"
)

// PredictionRepository is the PostgreSQL-backed DetectionStore.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository constructs a repository.
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// Create persists one record in a single INSERT, so the write is atomic with
// respect to concurrent creates and readers never see a partial row. The
// assigned id and creation timestamp come back via RETURNING.
func (r *PredictionRepository) Create(ctx context.Context, userID int64, filename string, results model.ResultSet) (*model.DetectionRecord, error) {
	payload, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	rec := &model.DetectionRecord{UserID: userID, Filename: filename, Results: results}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO predictions (user_id, filename, results)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, userID, filename, payload)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert prediction: %w", err)
	}
	return rec, nil
}

// ListByUser returns the user's records newest first. The id tiebreak keeps
// pagination stable when timestamps collide.
func (r *PredictionRepository) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]*model.DetectionRecord, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, filename, results, created_at
		FROM predictions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("select predictions: %w", err)
	}
	defer rows.Close()

	var records []*model.DetectionRecord
	for rows.Next() {
		var rec model.DetectionRecord
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Filename, &payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Results); err != nil {
			return nil, fmt.Errorf("decode results for prediction %d: %w", rec.ID, err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return records, nil
}

// CountByUser returns the exact record count for one user.
func (r *PredictionRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	row := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM predictions WHERE user_id = $1`, userID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count predictions: %w", err)
	}
	return count, nil
}

// CountAll returns the total record count across users.
func (r *PredictionRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	row := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM predictions`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count all predictions: %w", err)
	}
	return count, nil
}
