package model

import (
	"github.com/google/uuid"
)

// OptionCount is the fixed number of choices per question.
const OptionCount = 4

// DefaultQuestionScore is the point value used when a question carries none.
const DefaultQuestionScore = 2

// Question is a single-choice question on an exam paper. Numbers run 1..50
// and are contiguous within an exam; missing numbers are backfilled with
// placeholders at load time.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	Number        int       `json:"number"`
	Passage       *string   `json:"passage,omitempty"`
	ContextBox    *string   `json:"context_box,omitempty"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correct_answer"`
	Score         int       `json:"score"`
	ImageURL      *string   `json:"image_url,omitempty"`
	OptionImages  []string  `json:"option_images,omitempty"`
}

// QuestionForLearner is a question stripped of its correct answer, as cached
// in the exam payload and served to an active session.
type QuestionForLearner struct {
	ID           uuid.UUID `json:"id"`
	Number       int       `json:"number"`
	Passage      *string   `json:"passage,omitempty"`
	ContextBox   *string   `json:"context_box,omitempty"`
	Question     string    `json:"question"`
	Options      []string  `json:"options"`
	Score        int       `json:"score"`
	ImageURL     *string   `json:"image_url,omitempty"`
	OptionImages []string  `json:"option_images,omitempty"`
}

// ForLearner strips the correct answer from a question.
func (q Question) ForLearner() QuestionForLearner {
	return QuestionForLearner{
		ID:           q.ID,
		Number:       q.Number,
		Passage:      q.Passage,
		ContextBox:   q.ContextBox,
		Question:     q.Question,
		Options:      q.Options,
		Score:        q.Score,
		ImageURL:     q.ImageURL,
		OptionImages: q.OptionImages,
	}
}

// QuestionRequest is the payload for one question in a bulk replace.
type QuestionRequest struct {
	Number        int      `json:"number" binding:"required,min=1,max=50"`
	Passage       *string  `json:"passage" binding:"omitempty,max=8000"`
	ContextBox    *string  `json:"context_box" binding:"omitempty,max=4000"`
	Question      string   `json:"question" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,len=4,dive,max=500"`
	CorrectAnswer int      `json:"correct_answer" binding:"min=0,max=3"`
	Score         int      `json:"score" binding:"omitempty,min=1,max=10"`
	ImageURL      *string  `json:"image_url" binding:"omitempty,max=512"`
	OptionImages  []string `json:"option_images" binding:"omitempty,len=4,dive,max=512"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing an exam's questions.
type ReplaceQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions" binding:"dive"`
}
