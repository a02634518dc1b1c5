package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamAttempt is a history record of one submitted exam. Created exactly
// once per submission and immutable thereafter, except for deletion.
type ExamAttempt struct {
	ID           uuid.UUID   `json:"id"`
	LearnerID    int         `json:"learner_id"`
	ExamID       uuid.UUID   `json:"exam_id"`
	ExamTitle    string      `json:"exam_title"`
	Score        int         `json:"score"`
	TotalScore   int         `json:"total_score"`
	CorrectCount int         `json:"correct_count"`
	Answers      map[int]int `json:"answers"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Percentage returns the score as a 0-100 percentage.
func (a ExamAttempt) Percentage() float64 {
	if a.TotalScore == 0 {
		return 0
	}
	return float64(a.Score) / float64(a.TotalScore) * 100
}
