package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// LearnerRepository handles learner account data access.
type LearnerRepository struct {
	pool *pgxpool.Pool
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(pool *pgxpool.Pool) *LearnerRepository {
	return &LearnerRepository{pool: pool}
}

// GetByID retrieves a learner by ID.
func (r *LearnerRepository) GetByID(ctx context.Context, id int) (*model.Learner, error) {
	l := &model.Learner{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, plan, created_at
		 FROM learners WHERE id = $1`, id,
	).Scan(&l.ID, &l.Email, &l.Name, &l.PasswordHash, &l.Plan, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetByEmail retrieves a learner by email for login.
func (r *LearnerRepository) GetByEmail(ctx context.Context, email string) (*model.Learner, error) {
	l := &model.Learner{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, plan, created_at
		 FROM learners WHERE email = $1`, email,
	).Scan(&l.ID, &l.Email, &l.Name, &l.PasswordHash, &l.Plan, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Create inserts a new learner on the free plan.
func (r *LearnerRepository) Create(ctx context.Context, l *model.Learner) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO learners (email, name, password_hash, plan)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		l.Email, l.Name, l.PasswordHash, l.Plan,
	).Scan(&l.ID, &l.CreatedAt)
}

// UpdatePlan changes a learner's subscription tier.
func (r *LearnerRepository) UpdatePlan(ctx context.Context, id int, plan model.Plan) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE learners SET plan = $2 WHERE id = $1`, id, plan)
	return err
}
