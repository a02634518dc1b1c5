package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HighlightColor is the palette for text highlights.
type HighlightColor string

const (
	ColorYellow HighlightColor = "yellow"
	ColorGreen  HighlightColor = "green"
	ColorBlue   HighlightColor = "blue"
	ColorPink   HighlightColor = "pink"
)

// Annotation is a persistent highlight/note anchored to a literal substring
// of one question's rendered text. A nil Color together with an empty Note
// marks a soft-deleted annotation: the record stays alive so that
// re-highlighting the same text reuses the ID.
type Annotation struct {
	ID         uuid.UUID       `json:"id"`
	LearnerID  int             `json:"learner_id"`
	ContextKey string          `json:"context_key"`
	Text       string          `json:"text"`
	Note       string          `json:"note"`
	Color      *HighlightColor `json:"color"`
	CreatedAt  time.Time       `json:"timestamp"`
}

// Deleted reports whether the annotation is a soft-delete tombstone.
func (a Annotation) Deleted() bool {
	return a.Color == nil && a.Note == ""
}

// AnnotationContextKey builds the composite key scoping annotations to one
// question of one exam.
func AnnotationContextKey(examID uuid.UUID, questionNumber int) string {
	return fmt.Sprintf("TOPIK-%s-Q%d", examID, questionNumber)
}

// SaveAnnotationRequest is the payload for creating or updating a highlight.
type SaveAnnotationRequest struct {
	ContextKey string `json:"context_key" binding:"required,max=128"`
	Text       string `json:"text" binding:"max=2000"`
	Note       string `json:"note" binding:"max=4000"`
	Color      string `json:"color" binding:"omitempty,oneof=yellow green blue pink"`
}
