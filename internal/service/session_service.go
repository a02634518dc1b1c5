package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hangulab/topik-practice-backend/internal/config"
	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/repository"
	"github.com/hangulab/topik-practice-backend/internal/session"
)

// Session errors.
var (
	ErrNoActiveSession = errors.New("no active exam session")
	ErrAttemptNotFound = errors.New("attempt not found")
)

// LobbyExam is one row of the learner's exam list, with the lock flag the
// client renders as an upgrade prompt.
type LobbyExam struct {
	Exam   model.Exam `json:"exam"`
	Locked bool       `json:"locked"`
}

// SessionState is the full machine snapshot sent to the client.
type SessionState struct {
	View           session.View       `json:"view"`
	Exam           *model.Exam        `json:"exam,omitempty"`
	TimeLeft       int                `json:"time_left"`
	TimerActive    bool               `json:"timer_active"`
	Answers        map[int]int        `json:"answers"`
	Result         *model.ExamAttempt `json:"result,omitempty"`
	HistoryAttempt *model.ExamAttempt `json:"history_attempt,omitempty"`
}

// PaperView bundles everything the rendering layer needs to draw the
// current paper: questions, recorded answers, and whether this is review.
type PaperView struct {
	Exam      model.Exam
	Questions []model.Question
	Answers   map[int]int
	Review    bool
}

// SessionService owns one state machine per logged-in learner and drives
// all timers from a single shared ticker. Redis mirrors the running
// session so a process restart resumes instead of voiding the attempt.
type SessionService struct {
	examSvc     *ExamService
	accessSvc   *AccessService
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
	log         zerolog.Logger

	mu       sync.Mutex
	machines map[int]*session.Machine

	stopOnce sync.Once
	done     chan struct{}
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	examSvc *ExamService,
	accessSvc *AccessService,
	attemptRepo *repository.AttemptRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		examSvc:     examSvc,
		accessSvc:   accessSvc,
		attemptRepo: attemptRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "session_service").Logger(),
		machines:    make(map[int]*session.Machine),
		done:        make(chan struct{}),
	}
}

// StartTicker launches the shared 1 Hz countdown loop. Call once at boot.
func (s *SessionService) StartTicker() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.tickAll()
			}
		}
	}()
}

// Stop halts the ticker loop.
func (s *SessionService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *SessionService) tickAll() {
	s.mu.Lock()
	machines := make([]*session.Machine, 0, len(s.machines))
	for _, m := range s.machines {
		machines = append(machines, m)
	}
	s.mu.Unlock()

	for _, m := range machines {
		m.Tick()
	}
}

// Machine returns the learner's state machine, creating it on first use.
func (s *SessionService) Machine(learnerID int) *session.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.machines[learnerID]
	if !ok {
		m = session.New(learnerID, s.submitHook(learnerID))
		s.machines[learnerID] = m
	}
	return m
}

// submitHook hands a graded attempt to the persistence queue and clears
// the Redis session mirror. Runs under the machine lock, so it must not
// block on anything slower than Redis.
func (s *SessionService) submitHook(learnerID int) session.SubmitFunc {
	return func(attempt model.ExamAttempt) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		job, err := json.Marshal(attempt)
		if err != nil {
			s.log.Error().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Marshal attempt failed")
			return
		}
		if err := s.rdb.LPush(ctx, config.WorkerKey.PersistAttemptsQueue, job).Err(); err != nil {
			s.log.Error().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Enqueue attempt failed")
		}

		s.clearMirror(ctx, learnerID, attempt.ExamID)
	}
}

// Lobby lists published exams with per-learner lock flags.
func (s *SessionService) Lobby(ctx context.Context, learnerID int, examType model.ExamType) ([]LobbyExam, error) {
	exams, err := s.examSvc.ListPublished(ctx, examType)
	if err != nil {
		return nil, err
	}

	lobby := make([]LobbyExam, 0, len(exams))
	for _, e := range exams {
		ok, err := s.accessSvc.CanAccessContent(ctx, learnerID, &e)
		if err != nil {
			return nil, err
		}
		lobby = append(lobby, LobbyExam{Exam: e, Locked: !ok})
	}
	return lobby, nil
}

// Select moves the learner onto an exam's cover screen after the access
// check. Locked content surfaces ErrUpgradeRequired here, not a 404.
func (s *SessionService) Select(ctx context.Context, learnerID int, examID uuid.UUID) error {
	exam, err := s.examSvc.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return ErrExamNotPublished
	}
	if err := s.accessSvc.RequireAccess(ctx, learnerID, exam); err != nil {
		return err
	}

	questions, err := s.examSvc.LoadFullPaper(ctx, examID)
	if err != nil {
		return err
	}
	return s.Machine(learnerID).Select(*exam, questions)
}

// Payload returns the cached learner-facing paper for a published exam,
// access-checked. Serves the cover-page prefetch from Redis so opening an
// exam never touches PostgreSQL.
func (s *SessionService) Payload(ctx context.Context, learnerID int, examID uuid.UUID) (*model.ExamPayload, error) {
	exam, err := s.examSvc.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}
	if err := s.accessSvc.RequireAccess(ctx, learnerID, exam); err != nil {
		return nil, err
	}
	return s.examSvc.GetExamPayload(ctx, examID)
}

// Start begins the countdown and mirrors the running session to Redis.
func (s *SessionService) Start(ctx context.Context, learnerID int) error {
	m := s.Machine(learnerID)
	if err := m.Start(); err != nil {
		return err
	}

	exam := m.Exam()
	ttl := time.Duration(exam.TimeLimitMinutes+10) * time.Minute

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.LearnerActiveExamKey(learnerID), exam.ID.String(), ttl)
	pipe.Set(ctx, config.CacheKey.LearnerExamStartKey(exam.ID.String(), learnerID),
		strconv.FormatInt(time.Now().Unix(), 10), ttl)
	pipe.Del(ctx, config.CacheKey.LearnerAnswersKey(exam.ID.String(), learnerID))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Int("learner_id", learnerID).Msg("Session mirror write failed")
	}
	return nil
}

// Answer records a choice and mirrors it for restart recovery.
func (s *SessionService) Answer(ctx context.Context, learnerID, number, option int) error {
	m := s.Machine(learnerID)
	if err := m.Answer(number, option); err != nil {
		return err
	}

	if exam := m.Exam(); exam != nil {
		key := config.CacheKey.LearnerAnswersKey(exam.ID.String(), learnerID)
		if err := s.rdb.HSet(ctx, key, strconv.Itoa(number), option).Err(); err != nil {
			s.log.Warn().Err(err).Int("learner_id", learnerID).Msg("Answer mirror write failed")
		}
	}
	return nil
}

// Pause freezes the learner's countdown.
func (s *SessionService) Pause(learnerID int) error {
	return s.Machine(learnerID).Pause()
}

// Resume restarts a paused countdown.
func (s *SessionService) Resume(learnerID int) error {
	return s.Machine(learnerID).Resume()
}

// Submit grades the paper. Safe to call twice; the second call returns the
// same attempt.
func (s *SessionService) Submit(learnerID int) (model.ExamAttempt, error) {
	return s.Machine(learnerID).Submit()
}

// Review moves RESULT -> REVIEW.
func (s *SessionService) Review(learnerID int) error {
	return s.Machine(learnerID).Review()
}

// TryAgain returns to the cover with cleared answers and timer.
func (s *SessionService) TryAgain(learnerID int) error {
	return s.Machine(learnerID).TryAgain()
}

// BackToList resets the session and clears the Redis mirror.
func (s *SessionService) BackToList(ctx context.Context, learnerID int) {
	m := s.Machine(learnerID)
	if exam := m.Exam(); exam != nil {
		s.clearMirror(ctx, learnerID, exam.ID)
	}
	m.BackToList()
}

// OpenHistory moves LIST -> HISTORY_LIST.
func (s *SessionService) OpenHistory(learnerID int) error {
	return s.Machine(learnerID).OpenHistory()
}

// CloseHistory moves HISTORY_LIST -> LIST.
func (s *SessionService) CloseHistory(learnerID int) error {
	return s.Machine(learnerID).CloseHistory()
}

// History lists the learner's past attempts, newest first.
func (s *SessionService) History(ctx context.Context, learnerID int) ([]model.ExamAttempt, error) {
	return s.attemptRepo.ListByLearner(ctx, learnerID)
}

// ReviewAttempt opens a past attempt in review mode, reloading the paper
// it was taken on.
func (s *SessionService) ReviewAttempt(ctx context.Context, learnerID int, attemptID uuid.UUID) error {
	attempt, err := s.attemptRepo.GetByID(ctx, learnerID, attemptID)
	if err != nil {
		return ErrAttemptNotFound
	}
	exam, err := s.examSvc.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	questions, err := s.examSvc.LoadFullPaper(ctx, attempt.ExamID)
	if err != nil {
		return err
	}
	return s.Machine(learnerID).ReviewAttempt(*attempt, *exam, questions)
}

// DeleteAttempt removes one history record.
func (s *SessionService) DeleteAttempt(ctx context.Context, learnerID int, attemptID uuid.UUID) error {
	return s.attemptRepo.Delete(ctx, learnerID, attemptID)
}

// State snapshots the machine for the client, restoring a running session
// from the Redis mirror first if the process restarted mid-exam.
func (s *SessionService) State(ctx context.Context, learnerID int) (*SessionState, error) {
	m := s.Machine(learnerID)
	if m.View() == session.ViewList {
		s.tryRestore(ctx, learnerID, m)
	}

	timeLeft, active := m.TimeLeft()
	state := &SessionState{
		View:           m.View(),
		Exam:           m.Exam(),
		TimeLeft:       timeLeft,
		TimerActive:    active,
		Answers:        m.Answers(),
		Result:         m.Result(),
		HistoryAttempt: m.HistoryAttempt(),
	}
	return state, nil
}

// Paper returns the raw material for rendering the current paper. Valid in
// EXAM and REVIEW views only.
func (s *SessionService) Paper(learnerID int) (*PaperView, error) {
	m := s.Machine(learnerID)
	exam := m.Exam()
	if exam == nil {
		return nil, ErrNoActiveSession
	}

	view := m.View()
	if view != session.ViewExam && view != session.ViewReview {
		return nil, ErrNoActiveSession
	}

	answers := m.Answers()
	if view == session.ViewReview {
		if past := m.HistoryAttempt(); past != nil {
			answers = past.Answers
		} else if result := m.Result(); result != nil {
			answers = result.Answers
		}
	}

	return &PaperView{
		Exam:      *exam,
		Questions: m.Questions(),
		Answers:   answers,
		Review:    view == session.ViewReview,
	}, nil
}

// tryRestore rebuilds a running session from the Redis mirror. Remaining
// time is recomputed from the mirrored start; pause state does not survive
// a restart.
func (s *SessionService) tryRestore(ctx context.Context, learnerID int, m *session.Machine) {
	examIDStr, err := s.rdb.Get(ctx, config.CacheKey.LearnerActiveExamKey(learnerID)).Result()
	if errors.Is(err, redis.Nil) {
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Int("learner_id", learnerID).Msg("Session restore lookup failed")
		return
	}

	examID, err := uuid.Parse(examIDStr)
	if err != nil {
		return
	}
	exam, err := s.examSvc.GetByID(ctx, examID)
	if err != nil {
		return
	}

	startStr, err := s.rdb.Get(ctx, config.CacheKey.LearnerExamStartKey(examIDStr, learnerID)).Result()
	if err != nil {
		return
	}
	startUnix, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return
	}

	elapsed := int(time.Now().Unix() - startUnix)
	timeLeft := exam.TimeLimitMinutes*60 - elapsed
	if timeLeft <= 0 {
		// The exam expired while we were down. Let the next tick grade the
		// empty remainder rather than silently discarding the attempt.
		timeLeft = 1
	}

	questions, err := s.examSvc.LoadFullPaper(ctx, examID)
	if err != nil {
		return
	}

	answers := map[int]int{}
	mirror, err := s.rdb.HGetAll(ctx, config.CacheKey.LearnerAnswersKey(examIDStr, learnerID)).Result()
	if err == nil {
		for k, v := range mirror {
			n, err1 := strconv.Atoi(k)
			opt, err2 := strconv.Atoi(v)
			if err1 == nil && err2 == nil {
				answers[n] = opt
			}
		}
	}

	m.Restore(*exam, questions, answers, timeLeft)
	s.log.Info().
		Int("learner_id", learnerID).
		Str("exam_id", examIDStr).
		Int("time_left", timeLeft).
		Msg("Session restored from mirror")
}

func (s *SessionService) clearMirror(ctx context.Context, learnerID int, examID uuid.UUID) {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.LearnerActiveExamKey(learnerID))
	pipe.Del(ctx, config.CacheKey.LearnerExamStartKey(examID.String(), learnerID))
	pipe.Del(ctx, config.CacheKey.LearnerAnswersKey(examID.String(), learnerID))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Int("learner_id", learnerID).Msg("Session mirror clear failed")
	}
}
