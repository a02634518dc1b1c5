package session

import "github.com/hangulab/topik-practice-backend/internal/model"

// Score grades an answer map against the paper. Every question counts
// toward the total whether answered or not; unanswered questions simply
// earn nothing. A question with no point value counts the default.
func Score(questions []model.Question, answers map[int]int) (score, total, correct int) {
	for _, q := range questions {
		pts := q.Score
		if pts == 0 {
			pts = model.DefaultQuestionScore
		}
		total += pts

		chosen, answered := answers[q.Number]
		if answered && chosen == q.CorrectAnswer {
			score += pts
			correct++
		}
	}
	return score, total, correct
}
