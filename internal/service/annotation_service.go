package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/hangulab/topik-practice-backend/internal/annotation"
	"github.com/hangulab/topik-practice-backend/internal/model"
)

// ErrAnnotationNotFound signals a lookup miss on the learner's annotations.
var ErrAnnotationNotFound = errors.New("annotation not found")

// AnnotationStore is the persistence surface the service needs. Satisfied
// by repository.AnnotationRepository; narrowed to an interface so the
// upsert logic is testable without PostgreSQL.
type AnnotationStore interface {
	ListByContext(ctx context.Context, learnerID int, contextKey string) ([]model.Annotation, error)
	ListByContextPrefix(ctx context.Context, learnerID int, prefix string) ([]model.Annotation, error)
	GetByContextAndText(ctx context.Context, learnerID int, contextKey, text string) (*model.Annotation, error)
	GetByID(ctx context.Context, learnerID int, id uuid.UUID) (*model.Annotation, error)
	Create(ctx context.Context, a *model.Annotation) error
	Update(ctx context.Context, a *model.Annotation) error
}

// AnnotationService handles highlight and note lifecycle. Saves are
// idempotent on (context key, text): re-highlighting existing text updates
// the record in place instead of stacking duplicates.
type AnnotationService struct {
	store AnnotationStore
	log   zerolog.Logger
}

// NewAnnotationService creates a new AnnotationService.
func NewAnnotationService(store AnnotationStore, log zerolog.Logger) *AnnotationService {
	return &AnnotationService{
		store: store,
		log:   log.With().Str("component", "annotation_service").Logger(),
	}
}

// Save creates or updates the annotation anchored to (contextKey, text).
// A tombstoned record revives with the new color/note. An empty selection
// is a no-op: nothing to anchor to, nothing stored.
func (s *AnnotationService) Save(ctx context.Context, learnerID int, req model.SaveAnnotationRequest) (*model.Annotation, error) {
	if req.Text == "" {
		return nil, nil
	}

	var color *model.HighlightColor
	if req.Color != "" {
		c := model.HighlightColor(req.Color)
		color = &c
	}

	existing, err := s.store.GetByContextAndText(ctx, learnerID, req.ContextKey, req.Text)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup annotation: %w", err)
	}

	if existing != nil {
		existing.Note = req.Note
		existing.Color = color
		if err := s.store.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update annotation: %w", err)
		}
		return existing, nil
	}

	a := &model.Annotation{
		LearnerID:  learnerID,
		ContextKey: req.ContextKey,
		Text:       req.Text,
		Note:       req.Note,
		Color:      color,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create annotation: %w", err)
	}
	return a, nil
}

// Delete soft-deletes an annotation: the row stays so re-highlighting the
// same text reuses the ID, but it stops rendering and leaves the sidebar.
func (s *AnnotationService) Delete(ctx context.Context, learnerID int, id uuid.UUID) error {
	a, err := s.store.GetByID(ctx, learnerID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAnnotationNotFound
		}
		return fmt.Errorf("get annotation: %w", err)
	}

	a.Note = ""
	a.Color = nil
	return s.store.Update(ctx, a)
}

// ListByContext returns all of a learner's annotations for one question,
// tombstones included; the render layer skips them itself.
func (s *AnnotationService) ListByContext(ctx context.Context, learnerID int, contextKey string) ([]model.Annotation, error) {
	return s.store.ListByContext(ctx, learnerID, contextKey)
}

// Sidebar returns the noted annotations across one exam for the sidebar
// listing, ordered by question then age, plus the one identified by
// editingID (its note editor is open, so it belongs in the list already).
func (s *AnnotationService) Sidebar(ctx context.Context, learnerID int, examID uuid.UUID, editingID uuid.UUID) ([]model.Annotation, error) {
	prefix := fmt.Sprintf("TOPIK-%s-", examID)
	all, err := s.store.ListByContextPrefix(ctx, learnerID, prefix)
	if err != nil {
		return nil, err
	}
	return annotation.Sidebar(all, editingID), nil
}

// Decorator builds the render-time text decorator for one exam, loading
// the learner's annotations per question on demand.
func (s *AnnotationService) Decorator(ctx context.Context, learnerID int, examID uuid.UUID, activeID uuid.UUID) (func(contextKey, text string) string, error) {
	prefix := fmt.Sprintf("TOPIK-%s-", examID)
	all, err := s.store.ListByContextPrefix(ctx, learnerID, prefix)
	if err != nil {
		return nil, err
	}

	byContext := make(map[string][]model.Annotation)
	for _, a := range all {
		byContext[a.ContextKey] = append(byContext[a.ContextKey], a)
	}

	return func(contextKey, text string) string {
		return annotation.Apply(text, byContext[contextKey], activeID)
	}, nil
}
