package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// memAnnotationStore is an in-memory AnnotationStore for exercising the
// upsert and soft-delete logic without PostgreSQL.
type memAnnotationStore struct {
	rows []*model.Annotation
}

func (s *memAnnotationStore) ListByContext(_ context.Context, learnerID int, contextKey string) ([]model.Annotation, error) {
	out := []model.Annotation{}
	for _, a := range s.rows {
		if a.LearnerID == learnerID && a.ContextKey == contextKey {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memAnnotationStore) ListByContextPrefix(_ context.Context, learnerID int, prefix string) ([]model.Annotation, error) {
	out := []model.Annotation{}
	for _, a := range s.rows {
		if a.LearnerID == learnerID && strings.HasPrefix(a.ContextKey, prefix) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memAnnotationStore) GetByContextAndText(_ context.Context, learnerID int, contextKey, text string) (*model.Annotation, error) {
	for _, a := range s.rows {
		if a.LearnerID == learnerID && a.ContextKey == contextKey && a.Text == text {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memAnnotationStore) GetByID(_ context.Context, learnerID int, id uuid.UUID) (*model.Annotation, error) {
	for _, a := range s.rows {
		if a.LearnerID == learnerID && a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memAnnotationStore) Create(_ context.Context, a *model.Annotation) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	copied := *a
	s.rows = append(s.rows, &copied)
	return nil
}

func (s *memAnnotationStore) Update(_ context.Context, a *model.Annotation) error {
	for _, row := range s.rows {
		if row.ID == a.ID && row.LearnerID == a.LearnerID {
			row.Note = a.Note
			row.Color = a.Color
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newAnnotationService() (*AnnotationService, *memAnnotationStore) {
	store := &memAnnotationStore{}
	return NewAnnotationService(store, zerolog.Nop()), store
}

func TestSaveCreatesThenUpdatesInPlace(t *testing.T) {
	svc, store := newAnnotationService()
	ctx := context.Background()
	key := model.AnnotationContextKey(uuid.New(), 3)

	first, err := svc.Save(ctx, 1, model.SaveAnnotationRequest{
		ContextKey: key, Text: "중요한 표현", Color: "yellow",
	})
	require.NoError(t, err)
	require.Len(t, store.rows, 1)

	second, err := svc.Save(ctx, 1, model.SaveAnnotationRequest{
		ContextKey: key, Text: "중요한 표현", Color: "green", Note: "시험에 나옴",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same text must reuse the record")
	require.Len(t, store.rows, 1)
	assert.Equal(t, model.ColorGreen, *store.rows[0].Color)
	assert.Equal(t, "시험에 나옴", store.rows[0].Note)
}

func TestSaveDifferentTextCreatesSeparateRecords(t *testing.T) {
	svc, store := newAnnotationService()
	ctx := context.Background()
	key := model.AnnotationContextKey(uuid.New(), 3)

	_, err := svc.Save(ctx, 1, model.SaveAnnotationRequest{ContextKey: key, Text: "하나", Color: "yellow"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, 1, model.SaveAnnotationRequest{ContextKey: key, Text: "둘", Color: "yellow"})
	require.NoError(t, err)

	assert.Len(t, store.rows, 2)
}

func TestDeleteIsSoft(t *testing.T) {
	svc, store := newAnnotationService()
	ctx := context.Background()
	key := model.AnnotationContextKey(uuid.New(), 1)

	saved, err := svc.Save(ctx, 1, model.SaveAnnotationRequest{
		ContextKey: key, Text: "표시", Color: "pink", Note: "메모",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, saved.ID))

	require.Len(t, store.rows, 1, "soft delete keeps the row")
	assert.True(t, store.rows[0].Deleted())

	// Re-highlighting the same text revives the tombstone under its old ID.
	revived, err := svc.Save(ctx, 1, model.SaveAnnotationRequest{
		ContextKey: key, Text: "표시", Color: "blue",
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, revived.ID)
	assert.False(t, store.rows[0].Deleted())
}

func TestDeleteUnknownAnnotation(t *testing.T) {
	svc, _ := newAnnotationService()
	err := svc.Delete(context.Background(), 1, uuid.New())
	assert.ErrorIs(t, err, ErrAnnotationNotFound)
}

func TestSaveEmptySelectionIsNoOp(t *testing.T) {
	svc, store := newAnnotationService()

	saved, err := svc.Save(context.Background(), 1, model.SaveAnnotationRequest{
		ContextKey: model.AnnotationContextKey(uuid.New(), 1), Text: "", Color: "yellow",
	})

	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Empty(t, store.rows, "empty selection must not create an annotation record")
}

func TestSidebarListsNotedOnly(t *testing.T) {
	svc, _ := newAnnotationService()
	ctx := context.Background()
	examID := uuid.New()

	noted, err := svc.Save(ctx, 1, model.SaveAnnotationRequest{
		ContextKey: model.AnnotationContextKey(examID, 1), Text: "남김", Color: "yellow", Note: "메모",
	})
	require.NoError(t, err)
	colorOnly, err := svc.Save(ctx, 1, model.SaveAnnotationRequest{
		ContextKey: model.AnnotationContextKey(examID, 2), Text: "색만", Color: "green",
	})
	require.NoError(t, err)
	gone, err := svc.Save(ctx, 1, model.SaveAnnotationRequest{
		ContextKey: model.AnnotationContextKey(examID, 3), Text: "지움", Color: "yellow", Note: "삭제될 메모",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 1, gone.ID))

	// Another exam's annotation must not leak into this sidebar.
	_, err = svc.Save(ctx, 1, model.SaveAnnotationRequest{
		ContextKey: model.AnnotationContextKey(uuid.New(), 1), Text: "다른 시험", Color: "blue", Note: "메모",
	})
	require.NoError(t, err)

	sidebar, err := svc.Sidebar(ctx, 1, examID, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, sidebar, 1)
	assert.Equal(t, noted.ID, sidebar[0].ID)

	// Opening the note editor on the plain highlight pulls it into the list.
	sidebar, err = svc.Sidebar(ctx, 1, examID, colorOnly.ID)
	require.NoError(t, err)
	require.Len(t, sidebar, 2)
}

func TestDecoratorAppliesPerContext(t *testing.T) {
	svc, _ := newAnnotationService()
	ctx := context.Background()
	examID := uuid.New()
	keyQ1 := model.AnnotationContextKey(examID, 1)
	keyQ2 := model.AnnotationContextKey(examID, 2)

	saved, err := svc.Save(ctx, 1, model.SaveAnnotationRequest{
		ContextKey: keyQ1, Text: "표현", Color: "yellow",
	})
	require.NoError(t, err)

	decorate, err := svc.Decorator(ctx, 1, examID, uuid.Nil)
	require.NoError(t, err)

	marked := decorate(keyQ1, "이 표현 좋다")
	assert.Contains(t, marked, saved.ID.String())
	assert.Contains(t, marked, "highlight-yellow")

	untouched := decorate(keyQ2, "이 표현 좋다")
	assert.Equal(t, "이 표현 좋다", untouched, "annotations are scoped to their question")
}
