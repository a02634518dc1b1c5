package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamType distinguishes the two fixed paper kinds.
type ExamType string

const (
	ExamTypeReading   ExamType = "READING"
	ExamTypeListening ExamType = "LISTENING"
)

// PaperType is the printed paper variant (A-type or B-type booklet).
type PaperType string

const (
	PaperTypeA PaperType = "A"
	PaperTypeB PaperType = "B"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
)

// Exam represents one mock exam paper. Immutable once a session has loaded
// it; authored and mutated only through the admin surface.
type Exam struct {
	ID               uuid.UUID  `json:"id"`
	Type             ExamType   `json:"type"`
	Title            string     `json:"title"`
	Round            int        `json:"round"`
	PaperType        PaperType  `json:"paper_type"`
	TimeLimitMinutes int        `json:"time_limit"`
	AudioURL         *string    `json:"audio_url,omitempty"`
	Premium          bool       `json:"premium"`
	Status           ExamStatus `json:"status"`
	AuthorID         int        `json:"author_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Type             string `json:"type" binding:"required,oneof=READING LISTENING"`
	Title            string `json:"title" binding:"required,min=3,max=255"`
	Round            int    `json:"round" binding:"required,min=1,max=999"`
	PaperType        string `json:"paper_type" binding:"required,oneof=A B"`
	TimeLimitMinutes int    `json:"time_limit" binding:"required,min=1,max=480"`
	AudioURL         string `json:"audio_url" binding:"omitempty,max=512"`
	Premium          bool   `json:"premium"`
}

// UpdateExamRequest is the payload for updating an existing draft exam.
type UpdateExamRequest struct {
	Title            string `json:"title" binding:"omitempty,min=3,max=255"`
	Round            *int   `json:"round" binding:"omitempty,min=1,max=999"`
	PaperType        string `json:"paper_type" binding:"omitempty,oneof=A B"`
	TimeLimitMinutes *int   `json:"time_limit" binding:"omitempty,min=1,max=480"`
	AudioURL         *string `json:"audio_url" binding:"omitempty,max=512"`
	Premium          *bool  `json:"premium"`
}

// ExamPayload is the Redis-cached paper sent to learners (no correct answers).
type ExamPayload struct {
	ExamID    uuid.UUID            `json:"exam_id"`
	Type      ExamType             `json:"type"`
	Title     string               `json:"title"`
	Round     int                  `json:"round"`
	PaperType PaperType            `json:"paper_type"`
	TimeLimit int                  `json:"time_limit"`
	AudioURL  *string              `json:"audio_url,omitempty"`
	Questions []QuestionForLearner `json:"questions"`
}
