package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// AttemptRepository handles exam attempt history.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create persists a graded attempt. The ID is generated at submission time
// so a requeued persistence job lands on the conflict clause instead of
// creating a second row.
func (r *AttemptRepository) Create(ctx context.Context, a *model.ExamAttempt) error {
	answers, err := marshalAnswers(a.Answers)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_attempts (id, learner_id, exam_id, exam_title,
		                            score, total_score, correct_count, answers, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		a.ID, a.LearnerID, a.ExamID, a.ExamTitle,
		a.Score, a.TotalScore, a.CorrectCount, answers, a.CreatedAt,
	)
	return err
}

// GetByID retrieves one attempt owned by the learner.
func (r *AttemptRepository) GetByID(ctx context.Context, learnerID int, id uuid.UUID) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	var answersRaw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, learner_id, exam_id, exam_title, score, total_score,
		        correct_count, answers, created_at
		 FROM exam_attempts WHERE id = $1 AND learner_id = $2`, id, learnerID,
	).Scan(&a.ID, &a.LearnerID, &a.ExamID, &a.ExamTitle, &a.Score, &a.TotalScore,
		&a.CorrectCount, &answersRaw, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if a.Answers, err = unmarshalAnswers(answersRaw); err != nil {
		return nil, err
	}
	return a, nil
}

// ListByLearner retrieves a learner's attempts, newest first.
func (r *AttemptRepository) ListByLearner(ctx context.Context, learnerID int) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, learner_id, exam_id, exam_title, score, total_score,
		        correct_count, answers, created_at
		 FROM exam_attempts WHERE learner_id = $1
		 ORDER BY created_at DESC`, learnerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []model.ExamAttempt{}
	for rows.Next() {
		var a model.ExamAttempt
		var answersRaw []byte
		if err := rows.Scan(&a.ID, &a.LearnerID, &a.ExamID, &a.ExamTitle, &a.Score, &a.TotalScore,
			&a.CorrectCount, &answersRaw, &a.CreatedAt); err != nil {
			return nil, err
		}
		if a.Answers, err = unmarshalAnswers(answersRaw); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Delete removes one attempt owned by the learner.
func (r *AttemptRepository) Delete(ctx context.Context, learnerID int, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM exam_attempts WHERE id = $1 AND learner_id = $2`, id, learnerID)
	return err
}

// Answers persist as a JSON object keyed by the question number.
func marshalAnswers(answers map[int]int) ([]byte, error) {
	out := make(map[string]int, len(answers))
	for n, opt := range answers {
		out[strconv.Itoa(n)] = opt
	}
	return json.Marshal(out)
}

func unmarshalAnswers(raw []byte) (map[int]int, error) {
	if len(raw) == 0 {
		return map[int]int{}, nil
	}
	var in map[string]int
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	out := make(map[int]int, len(in))
	for k, opt := range in {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, err
		}
		out[n] = opt
	}
	return out, nil
}
