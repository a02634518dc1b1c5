package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// AnnotationRepository handles highlight and note storage.
type AnnotationRepository struct {
	pool *pgxpool.Pool
}

// NewAnnotationRepository creates a new AnnotationRepository.
func NewAnnotationRepository(pool *pgxpool.Pool) *AnnotationRepository {
	return &AnnotationRepository{pool: pool}
}

const annotationColumns = `id, learner_id, context_key, text, note, color, created_at`

// ListByContext retrieves a learner's annotations for one question,
// oldest first so later highlights win on overlapping text.
func (r *AnnotationRepository) ListByContext(ctx context.Context, learnerID int, contextKey string) ([]model.Annotation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations WHERE learner_id = $1 AND context_key = $2
		 ORDER BY created_at, id`, learnerID, contextKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnnotations(rows)
}

// ListByContextPrefix retrieves annotations across every question of one
// exam, for the sidebar listing. The prefix is the exam-scoped part of the
// context key.
func (r *AnnotationRepository) ListByContextPrefix(ctx context.Context, learnerID int, prefix string) ([]model.Annotation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations WHERE learner_id = $1 AND context_key LIKE $2 || '%'
		 ORDER BY context_key, created_at, id`, learnerID, prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnnotations(rows)
}

// GetByContextAndText finds the annotation anchored to this exact text, if
// any, enabling idempotent re-highlighting. Text matching is exact here;
// case folding belongs to render-time matching only.
func (r *AnnotationRepository) GetByContextAndText(ctx context.Context, learnerID int, contextKey, text string) (*model.Annotation, error) {
	a := &model.Annotation{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations WHERE learner_id = $1 AND context_key = $2 AND text = $3`,
		learnerID, contextKey, text,
	).Scan(&a.ID, &a.LearnerID, &a.ContextKey, &a.Text, &a.Note, &a.Color, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves one annotation owned by the learner.
func (r *AnnotationRepository) GetByID(ctx context.Context, learnerID int, id uuid.UUID) (*model.Annotation, error) {
	a := &model.Annotation{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations WHERE id = $1 AND learner_id = $2`, id, learnerID,
	).Scan(&a.ID, &a.LearnerID, &a.ContextKey, &a.Text, &a.Note, &a.Color, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new annotation.
func (r *AnnotationRepository) Create(ctx context.Context, a *model.Annotation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO annotations (learner_id, context_key, text, note, color)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.LearnerID, a.ContextKey, a.Text, a.Note, a.Color,
	).Scan(&a.ID, &a.CreatedAt)
}

// Update rewrites an annotation's note and color. Setting both to their
// zero values soft-deletes it.
func (r *AnnotationRepository) Update(ctx context.Context, a *model.Annotation) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE annotations SET note = $3, color = $4
		 WHERE id = $1 AND learner_id = $2`,
		a.ID, a.LearnerID, a.Note, a.Color,
	)
	return err
}

func collectAnnotations(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.Annotation, error) {
	annotations := []model.Annotation{}
	for rows.Next() {
		var a model.Annotation
		if err := rows.Scan(&a.ID, &a.LearnerID, &a.ContextKey, &a.Text, &a.Note, &a.Color, &a.CreatedAt); err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}
