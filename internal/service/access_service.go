package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/repository"
)

// ErrUpgradeRequired signals that the learner's plan does not cover the
// requested content. Handlers translate it into an upgrade prompt, never a
// bare failure.
var ErrUpgradeRequired = errors.New("premium plan required for this content")

// AccessService decides whether a learner may open a given exam.
type AccessService struct {
	learnerRepo *repository.LearnerRepository
}

// NewAccessService creates a new AccessService.
func NewAccessService(learnerRepo *repository.LearnerRepository) *AccessService {
	return &AccessService{learnerRepo: learnerRepo}
}

// CanAccessContent reports whether the learner may sit this exam. Free
// content is open to everyone; premium content needs a premium plan.
func (s *AccessService) CanAccessContent(ctx context.Context, learnerID int, exam *model.Exam) (bool, error) {
	if !exam.Premium {
		return true, nil
	}
	learner, err := s.learnerRepo.GetByID(ctx, learnerID)
	if err != nil {
		return false, fmt.Errorf("get learner: %w", err)
	}
	return learner.Plan == model.PlanPremium, nil
}

// RequireAccess is CanAccessContent with the denial folded into an error.
func (s *AccessService) RequireAccess(ctx context.Context, learnerID int, exam *model.Exam) error {
	ok, err := s.CanAccessContent(ctx, learnerID, exam)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUpgradeRequired
	}
	return nil
}

// UpgradePlan moves a learner to the premium tier. Payment handling lives
// outside this service; this is the post-payment hook.
func (s *AccessService) UpgradePlan(ctx context.Context, learnerID int) error {
	return s.learnerRepo.UpdatePlan(ctx, learnerID, model.PlanPremium)
}
