package annotation

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

func colorPtr(c model.HighlightColor) *model.HighlightColor { return &c }

func liveAnnotation(text string, color model.HighlightColor) model.Annotation {
	return model.Annotation{
		ID:         uuid.New(),
		LearnerID:  1,
		ContextKey: "TOPIK-x-Q1",
		Text:       text,
		Color:      colorPtr(color),
	}
}

func TestApplyWrapsMatches(t *testing.T) {
	a := liveAnnotation("중요한", model.ColorYellow)

	got := Apply("이것은 중요한 문장입니다.", []model.Annotation{a}, uuid.Nil)

	want := fmt.Sprintf(`이것은 <mark data-id="%s" class="annotation-mark highlight-yellow">중요한</mark> 문장입니다.`, a.ID)
	assert.Equal(t, want, got)
}

func TestApplyCaseInsensitivePreservesOriginal(t *testing.T) {
	a := liveAnnotation("topik", model.ColorGreen)

	got := Apply("TOPIK 시험과 topik 교재", []model.Annotation{a}, uuid.Nil)

	assert.Contains(t, got, ">TOPIK</mark>")
	assert.Contains(t, got, ">topik</mark>")
}

func TestApplyEscapesRegexMetacharacters(t *testing.T) {
	a := liveAnnotation("(가)", model.ColorBlue)

	got := Apply("문장 속 (가) 표시", []model.Annotation{a}, uuid.Nil)

	assert.Contains(t, got, ">(가)</mark>")

	// "(가)" must not behave as a capture group matching bare "가".
	other := Apply("가 나 다", []model.Annotation{a}, uuid.Nil)
	assert.Equal(t, "가 나 다", other)
}

func TestApplySkipsTombstonesAndEmptyText(t *testing.T) {
	tombstone := model.Annotation{ID: uuid.New(), Text: "문장"}
	empty := liveAnnotation("", model.ColorPink)

	got := Apply("문장 그대로", []model.Annotation{tombstone, empty}, uuid.Nil)

	assert.Equal(t, "문장 그대로", got)
}

func TestApplyNoteOnlyRendersUnderline(t *testing.T) {
	a := model.Annotation{ID: uuid.New(), Text: "어휘", Note: "기억할 것"}

	got := Apply("새 어휘 목록", []model.Annotation{a}, uuid.Nil)

	assert.Contains(t, got, "underline-yellow")
	assert.Contains(t, got, "has-note")
	assert.NotContains(t, got, "highlight-")
}

func TestApplyActiveID(t *testing.T) {
	a := liveAnnotation("표시", model.ColorYellow)

	got := Apply("표시 대상", []model.Annotation{a}, a.ID)
	assert.Contains(t, got, " active")

	got = Apply("표시 대상", []model.Annotation{a}, uuid.New())
	assert.NotContains(t, got, " active")
}

func TestApplyNoMatchLeavesTextUntouched(t *testing.T) {
	a := liveAnnotation("없는말", model.ColorYellow)

	got := Apply("아무 변화 없음", []model.Annotation{a}, uuid.Nil)
	assert.Equal(t, "아무 변화 없음", got)
}

func TestSidebarListsOnlyNotedAnnotations(t *testing.T) {
	colorOnly := liveAnnotation("하나", model.ColorYellow)
	noted := model.Annotation{ID: uuid.New(), Text: "둘", Note: "메모"}
	dead := model.Annotation{ID: uuid.New(), Text: "셋"}

	got := Sidebar([]model.Annotation{colorOnly, noted, dead}, uuid.Nil)

	// Tombstones and note-less highlights stay out; the latter render
	// inline only.
	assert.Len(t, got, 1)
	assert.Equal(t, noted.ID, got[0].ID)
}

func TestSidebarAdmitsAnnotationBeingEdited(t *testing.T) {
	colorOnly := liveAnnotation("하나", model.ColorYellow)
	noted := model.Annotation{ID: uuid.New(), Text: "둘", Note: "메모"}

	got := Sidebar([]model.Annotation{colorOnly, noted}, colorOnly.ID)

	assert.Len(t, got, 2)
	assert.Equal(t, colorOnly.ID, got[0].ID)
	assert.Equal(t, noted.ID, got[1].ID)
}

func TestSidebarNeverAdmitsEditedTombstone(t *testing.T) {
	dead := model.Annotation{ID: uuid.New(), Text: "셋"}

	got := Sidebar([]model.Annotation{dead}, dead.ID)

	assert.Empty(t, got)
}
