package repository

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, type, title, round, paper_type, time_limit_minutes,
	        audio_url, premium, status, author_id, created_at, updated_at`

func scanExam(row interface{ Scan(...any) error }) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Type, &e.Title, &e.Round, &e.PaperType, &e.TimeLimitMinutes,
		&e.AudioURL, &e.Premium, &e.Status, &e.AuthorID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// ListPublished retrieves all published exams ordered by round, newest first.
// Pass an empty examType to list both paper kinds.
func (r *ExamRepository) ListPublished(ctx context.Context, examType model.ExamType) ([]model.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE status = 'PUBLISHED'`
	args := []any{}
	if examType != "" {
		query += ` AND type = $1`
		args = append(args, examType)
	}
	query += ` ORDER BY round DESC, paper_type ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// ListByAuthorPaginated retrieves exams for the admin surface with
// pagination. Pass authorID=0 to list all exams.
func (r *ExamRepository) ListByAuthorPaginated(ctx context.Context, authorID, limit, offset int) ([]model.Exam, int, error) {
	countQuery := `SELECT COUNT(*) FROM exams`
	var countArgs []any
	if authorID > 0 {
		countQuery += ` WHERE author_id = $1`
		countArgs = append(countArgs, authorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + examColumns + ` FROM exams`
	var args []any
	argIdx := 1
	if authorID > 0 {
		query += ` WHERE author_id = $1`
		args = append(args, authorID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, 0, err
		}
		exams = append(exams, *e)
	}
	return exams, total, rows.Err()
}

// Create inserts a new draft exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (type, title, round, paper_type, time_limit_minutes,
		                    audio_url, premium, status, author_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		e.Type, e.Title, e.Round, e.PaperType, e.TimeLimitMinutes,
		e.AudioURL, e.Premium, e.Status, e.AuthorID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update rewrites the mutable exam fields.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $2, round = $3, paper_type = $4, time_limit_minutes = $5,
		     audio_url = $6, premium = $7, updated_at = NOW()
		 WHERE id = $1`,
		e.ID, e.Title, e.Round, e.PaperType, e.TimeLimitMinutes, e.AudioURL, e.Premium,
	)
	return err
}

// UpdateStatus flips an exam between DRAFT and PUBLISHED.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	return err
}

// Delete removes an exam; questions cascade at the schema level.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}
