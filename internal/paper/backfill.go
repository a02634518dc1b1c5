package paper

import (
	"sort"

	"github.com/google/uuid"
	"github.com/hangulab/topik-practice-backend/internal/model"
)

// placeholderText marks a question slot the author has not filled yet.
const placeholderText = "(문항 준비 중)"

// Backfill normalizes a loaded question set to exactly PaperSize questions
// with contiguous numbers 1..PaperSize. Authored questions keep their data;
// missing numbers get placeholders so the paper always renders completely.
// Duplicate numbers keep the first occurrence. A zero score defaults to
// model.DefaultQuestionScore. The input slice is not mutated.
func Backfill(examID uuid.UUID, questions []model.Question) []model.Question {
	byNumber := make(map[int]model.Question, len(questions))
	for _, q := range questions {
		if q.Number < 1 || q.Number > PaperSize {
			continue
		}
		if _, exists := byNumber[q.Number]; exists {
			continue
		}
		if q.Score == 0 {
			q.Score = model.DefaultQuestionScore
		}
		byNumber[q.Number] = q
	}

	full := make([]model.Question, 0, PaperSize)
	for n := 1; n <= PaperSize; n++ {
		q, ok := byNumber[n]
		if !ok {
			q = placeholder(examID, n)
		}
		full = append(full, q)
	}

	sort.Slice(full, func(i, j int) bool { return full[i].Number < full[j].Number })
	return full
}

func placeholder(examID uuid.UUID, number int) model.Question {
	return model.Question{
		ID:            uuid.New(),
		ExamID:        examID,
		Number:        number,
		Question:      placeholderText,
		Options:       []string{"①", "②", "③", "④"},
		CorrectAnswer: 0,
		Score:         model.DefaultQuestionScore,
	}
}
