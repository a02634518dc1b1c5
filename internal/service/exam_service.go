package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hangulab/topik-practice-backend/internal/config"
	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/paper"
	"github.com/hangulab/topik-practice-backend/internal/repository"
	"github.com/hangulab/topik-practice-backend/internal/response"
)

// Domain Errors
var (
	ErrNotExamAuthor    = errors.New("not the author of this exam")
	ErrNoQuestions      = errors.New("exam has no questions, cannot publish")
	ErrExamNotDraft     = errors.New("exam status is not DRAFT")
	ErrExamNotPublished = errors.New("exam status is not PUBLISHED")
	ErrPayloadNotCached = errors.New("exam payload not cached")
	ErrPaperStructure   = errors.New("paper has a malformed question")
)

// ExamService handles exam authoring, publication, and Redis caching.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// ListPublished retrieves the learner-facing exam list.
func (s *ExamService) ListPublished(ctx context.Context, examType model.ExamType) ([]model.Exam, error) {
	return s.examRepo.ListPublished(ctx, examType)
}

// ListByAuthor retrieves exams for the admin surface with pagination.
func (s *ExamService) ListByAuthor(ctx context.Context, authorID, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	exams, total, err := s.examRepo.ListByAuthorPaginated(ctx, authorID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return exams, pagination, nil
}

// Create inserts a new exam as DRAFT.
func (s *ExamService) Create(ctx context.Context, exam *model.Exam) error {
	exam.Status = model.ExamStatusDraft
	return s.examRepo.Create(ctx, exam)
}

// Update rewrites a draft exam's fields. Published exams must be edited
// through ReplaceQuestions + RefreshCache so learners never see a half
// edit.
func (s *ExamService) Update(ctx context.Context, exam *model.Exam, authorID int) error {
	current, err := s.examRepo.GetByID(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if current.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if current.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.examRepo.Update(ctx, exam)
}

// Delete removes a draft exam and its questions.
func (s *ExamService) Delete(ctx context.Context, examID uuid.UUID, authorID int) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.examRepo.Delete(ctx, examID)
}

// ReplaceQuestions swaps an exam's question set.
func (s *ExamService) ReplaceQuestions(ctx context.Context, examID uuid.UUID, authorID int, questions []model.Question) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	return s.questionRepo.ReplaceForExam(ctx, examID, questions)
}

// ListQuestions retrieves an exam's authored questions for the author.
func (s *ExamService) ListQuestions(ctx context.Context, examID uuid.UUID, authorID int) ([]model.Question, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.AuthorID != authorID {
		return nil, ErrNotExamAuthor
	}
	return s.questionRepo.ListByExam(ctx, examID)
}

// Publish changes exam status to PUBLISHED and caches the full paper
// payload in Redis so session starts never touch PostgreSQL.
func (s *ExamService) Publish(ctx context.Context, examID uuid.UUID, authorID int) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}

	count, err := s.questionRepo.CountByExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count == 0 {
		return ErrNoQuestions
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		return err
	}
	if err := s.examRepo.UpdateStatus(ctx, examID, model.ExamStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("exam_id", examID.String()).Msg("Exam published")
	return nil
}

// Unpublish returns an exam to DRAFT and drops its cached payload.
func (s *ExamService) Unpublish(ctx context.Context, examID uuid.UUID, authorID int) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if exam.Status != model.ExamStatusPublished {
		return ErrExamNotPublished
	}

	if err := s.examRepo.UpdateStatus(ctx, examID, model.ExamStatusDraft); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if err := s.rdb.Del(ctx, config.CacheKey.ExamPayloadKey(examID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to drop cached payload")
	}
	return nil
}

// RefreshCache re-caches the payload for a published exam. Called when
// questions are corrected after publish.
func (s *ExamService) RefreshCache(ctx context.Context, examID uuid.UUID, authorID int) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if authorID != 0 && exam.AuthorID != authorID {
		return ErrNotExamAuthor
	}
	if exam.Status != model.ExamStatusPublished {
		return ErrExamNotPublished
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		return err
	}
	s.log.Info().Str("exam_id", examID.String()).Msg("Cache refreshed")
	return nil
}

// WarmExamCache loads an exam's questions, backfills them to a full
// 50-question paper, and caches the learner-facing payload in Redis.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	authored, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(authored) == 0 {
		return ErrNoQuestions
	}

	// Binding validation covers the API path; data loaded or migrated
	// directly can still be malformed and would render a broken paper.
	for _, q := range authored {
		if len(q.Options) != model.OptionCount || q.CorrectAnswer < 0 || q.CorrectAnswer >= model.OptionCount {
			return fmt.Errorf("%w: question %d", ErrPaperStructure, q.Number)
		}
	}

	questions := paper.Backfill(exam.ID, authored)

	learnerQuestions := make([]model.QuestionForLearner, len(questions))
	for i, q := range questions {
		learnerQuestions[i] = q.ForLearner()
	}

	payload := model.ExamPayload{
		ExamID:    exam.ID,
		Type:      exam.Type,
		Title:     exam.Title,
		Round:     exam.Round,
		PaperType: exam.PaperType,
		TimeLimit: exam.TimeLimitMinutes,
		AudioURL:  exam.AudioURL,
		Questions: learnerQuestions,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamPayloadKey(exam.ID.String()), payloadJSON, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", exam.ID.String()).
		Int("authored", len(authored)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published exams into Redis on startup so the
// first learner of the day does not pay the cache-miss penalty.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListPublished(ctx, "")
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}
	if len(exams) == 0 {
		s.log.Info().Msg("No published exams to prewarm")
		return nil
	}

	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// GetExamPayload retrieves the cached learner payload from Redis, falling
// back to a fresh warm when the key was evicted.
func (s *ExamService) GetExamPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(examID.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		exam, err := s.examRepo.GetByID(ctx, examID)
		if err != nil {
			return nil, fmt.Errorf("get exam: %w", err)
		}
		if exam.Status != model.ExamStatusPublished {
			return nil, ErrExamNotPublished
		}
		if err := s.WarmExamCache(ctx, exam); err != nil {
			return nil, err
		}
		if data, err = s.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(examID.String())).Bytes(); err != nil {
			return nil, ErrPayloadNotCached
		}
	} else if err != nil {
		return nil, fmt.Errorf("get payload: %w", err)
	}

	var payload model.ExamPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &payload, nil
}

// LoadFullPaper loads the graded paper (with correct answers) from
// PostgreSQL and backfills it, for scoring and review. An empty authored
// set is valid: the learner gets a full paper of placeholders, not an
// error. Empty papers are rejected at publish time, not here.
func (s *ExamService) LoadFullPaper(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	authored, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return paper.Backfill(examID, authored), nil
}
