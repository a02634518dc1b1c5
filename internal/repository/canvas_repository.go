package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// CanvasRepository handles ink overlay storage.
type CanvasRepository struct {
	pool *pgxpool.Pool
}

// NewCanvasRepository creates a new CanvasRepository.
func NewCanvasRepository(pool *pgxpool.Pool) *CanvasRepository {
	return &CanvasRepository{pool: pool}
}

// Get retrieves one overlay, or nil when the learner has never drawn on
// this page.
func (r *CanvasRepository) Get(ctx context.Context, learnerID int, key model.CanvasKey) (*model.CanvasData, error) {
	var linesRaw []byte
	data := &model.CanvasData{}
	err := r.pool.QueryRow(ctx,
		`SELECT lines, version FROM canvas_data
		 WHERE learner_id = $1 AND target_id = $2 AND target_type = $3 AND page_index = $4`,
		learnerID, key.TargetID, key.TargetType, key.PageIndex,
	).Scan(&linesRaw, &data.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(linesRaw, &data.Lines); err != nil {
		return nil, err
	}
	return data, nil
}

// Upsert writes an overlay snapshot. Last write wins by version: a stale
// snapshot arriving after a newer one (out-of-order queue delivery) is
// dropped by the guard.
func (r *CanvasRepository) Upsert(ctx context.Context, learnerID int, key model.CanvasKey, data model.CanvasData) error {
	lines, err := json.Marshal(data.Lines)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO canvas_data (learner_id, target_id, target_type, page_index, lines, version)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (learner_id, target_id, target_type, page_index)
		 DO UPDATE SET lines = excluded.lines, version = excluded.version,
		               updated_at = NOW()
		 WHERE excluded.version > canvas_data.version`,
		learnerID, key.TargetID, key.TargetType, key.PageIndex, lines, data.Version,
	)
	return err
}

// DeleteByTarget removes every page overlay for one target.
func (r *CanvasRepository) DeleteByTarget(ctx context.Context, learnerID int, targetID, targetType string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM canvas_data
		 WHERE learner_id = $1 AND target_id = $2 AND target_type = $3`,
		learnerID, targetID, targetType,
	)
	return err
}
