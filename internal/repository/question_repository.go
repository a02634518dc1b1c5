package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all authored questions for an exam ordered by number.
// Returns an empty slice when the exam has none; callers backfill to a full
// paper themselves.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, number, passage, context_box, question,
		        options, correct_answer, score, image_url, option_images
		 FROM questions WHERE exam_id = $1
		 ORDER BY number`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		var optionsRaw, optionImagesRaw []byte
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Number, &q.Passage, &q.ContextBox, &q.Question,
			&optionsRaw, &q.CorrectAnswer, &q.Score, &q.ImageURL, &optionImagesRaw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(optionsRaw, &q.Options); err != nil {
			return nil, err
		}
		if optionImagesRaw != nil {
			if err := json.Unmarshal(optionImagesRaw, &q.OptionImages); err != nil {
				return nil, err
			}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceForExam swaps an exam's entire question set in one transaction.
// Authoring always sends the full paper; partial edits never hit this path.
func (r *QuestionRepository) ReplaceForExam(ctx context.Context, examID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
		return err
	}

	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		var optionImages []byte
		if q.OptionImages != nil {
			if optionImages, err = json.Marshal(q.OptionImages); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (exam_id, number, passage, context_box, question,
			                        options, correct_answer, score, image_url, option_images)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			examID, q.Number, q.Passage, q.ContextBox, q.Question,
			options, q.CorrectAnswer, q.Score, q.ImageURL, optionImages,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// CountByExam returns how many questions an exam has authored.
func (r *QuestionRepository) CountByExam(ctx context.Context, examID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE exam_id = $1`, examID,
	).Scan(&count)
	return count, err
}
