// Package session implements the server-authoritative exam session state
// machine. The machine is pure coordination: no I/O, no clocks. The owning
// service drives it with Tick at one-second intervals and persists what the
// submit hook hands back.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// View is the learner-facing screen the session is on.
type View string

const (
	ViewList        View = "LIST"
	ViewCover       View = "COVER"
	ViewExam        View = "EXAM"
	ViewResult      View = "RESULT"
	ViewReview      View = "REVIEW"
	ViewHistoryList View = "HISTORY_LIST"
)

var (
	ErrIllegalTransition = errors.New("illegal view transition")
	ErrNoActiveExam      = errors.New("no exam selected")
	ErrAnswerOutOfRange  = errors.New("answer out of range")
)

// SubmitFunc receives the finished attempt exactly once per submission.
type SubmitFunc func(model.ExamAttempt)

// Machine tracks one learner's exam session. All methods are safe for
// concurrent use; the WebSocket reader, the REST handlers, and the shared
// ticker all touch the same machine.
type Machine struct {
	mu sync.Mutex

	learnerID int
	view      View

	exam      *model.Exam
	questions []model.Question

	answers     map[int]int
	timeLeft    int
	timerActive bool
	submitted   bool

	result        *model.ExamAttempt
	reviewAttempt *model.ExamAttempt

	onSubmit SubmitFunc
}

// New returns a machine on the exam list view.
func New(learnerID int, onSubmit SubmitFunc) *Machine {
	return &Machine{
		learnerID: learnerID,
		view:      ViewList,
		answers:   make(map[int]int),
		onSubmit:  onSubmit,
	}
}

// Select moves LIST -> COVER with the chosen exam. Access control happens
// before this call; the machine assumes the learner may sit this paper.
func (m *Machine) Select(exam model.Exam, questions []model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewList {
		return ErrIllegalTransition
	}
	m.exam = &exam
	m.questions = questions
	m.view = ViewCover
	return nil
}

// Start moves COVER -> EXAM, arming the countdown at the full time limit.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewCover {
		return ErrIllegalTransition
	}
	if m.exam == nil {
		return ErrNoActiveExam
	}
	m.answers = make(map[int]int)
	m.timeLeft = m.exam.TimeLimitMinutes * 60
	m.timerActive = true
	m.submitted = false
	m.result = nil
	m.view = ViewExam
	return nil
}

// Restore rebuilds a machine into a running EXAM view after a process
// restart, from the mirrored answers and the remaining time.
func (m *Machine) Restore(exam model.Exam, questions []model.Question, answers map[int]int, timeLeft int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exam = &exam
	m.questions = questions
	m.answers = make(map[int]int, len(answers))
	for k, v := range answers {
		m.answers[k] = v
	}
	m.timeLeft = timeLeft
	m.timerActive = true
	m.submitted = false
	m.result = nil
	m.view = ViewExam
}

// Answer records the learner's choice for a question. Re-answering
// overwrites; there is no un-answer.
func (m *Machine) Answer(number, option int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewExam || m.submitted {
		return ErrIllegalTransition
	}
	if number < 1 || number > len(m.questions) || option < 0 || option >= model.OptionCount {
		return ErrAnswerOutOfRange
	}
	m.answers[number] = option
	return nil
}

// Tick advances the countdown by one second. When it reaches zero the exam
// auto-submits; further ticks are no-ops. Returns the remaining time and
// whether this tick fired the submission.
func (m *Machine) Tick() (timeLeft int, autoSubmitted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewExam || !m.timerActive || m.submitted {
		return m.timeLeft, false
	}
	m.timeLeft--
	if m.timeLeft > 0 {
		return m.timeLeft, false
	}
	m.timeLeft = 0
	m.submitLocked()
	return 0, true
}

// Pause freezes the countdown without leaving the exam view.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewExam || m.submitted {
		return ErrIllegalTransition
	}
	m.timerActive = false
	return nil
}

// Resume restarts a paused countdown. A session that already hit zero
// stays submitted; resuming it is a no-op error.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewExam || m.submitted || m.timeLeft <= 0 {
		return ErrIllegalTransition
	}
	m.timerActive = true
	return nil
}

// Submit grades the paper and moves EXAM -> RESULT. Idempotent: a repeat
// call returns the already-computed attempt without firing the hook again.
func (m *Machine) Submit() (model.ExamAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.submitted && m.result != nil {
		return *m.result, nil
	}
	if m.view != ViewExam {
		return model.ExamAttempt{}, ErrIllegalTransition
	}
	m.submitLocked()
	return *m.result, nil
}

// submitLocked finishes the exam under the held lock. Callers guarantee the
// machine is in EXAM view and not yet submitted.
func (m *Machine) submitLocked() {
	score, total, correct := Score(m.questions, m.answers)

	answers := make(map[int]int, len(m.answers))
	for k, v := range m.answers {
		answers[k] = v
	}

	attempt := model.ExamAttempt{
		ID:           uuid.New(),
		LearnerID:    m.learnerID,
		ExamID:       m.exam.ID,
		ExamTitle:    m.exam.Title,
		Score:        score,
		TotalScore:   total,
		CorrectCount: correct,
		Answers:      answers,
		CreatedAt:    time.Now().UTC(),
	}

	m.submitted = true
	m.timerActive = false
	m.result = &attempt
	m.view = ViewResult

	if m.onSubmit != nil {
		m.onSubmit(attempt)
	}
}

// Review moves RESULT -> REVIEW, walking the just-finished paper.
func (m *Machine) Review() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewResult {
		return ErrIllegalTransition
	}
	m.view = ViewReview
	return nil
}

// TryAgain returns to the cover of the same exam with a clean slate.
func (m *Machine) TryAgain() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewResult && m.view != ViewReview {
		return ErrIllegalTransition
	}
	m.answers = make(map[int]int)
	m.timeLeft = 0
	m.timerActive = false
	m.submitted = false
	m.result = nil
	m.view = ViewCover
	return nil
}

// BackToList resets everything and returns to the exam list. Legal from
// every view; it is the universal escape hatch.
func (m *Machine) BackToList() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exam = nil
	m.questions = nil
	m.answers = make(map[int]int)
	m.timeLeft = 0
	m.timerActive = false
	m.submitted = false
	m.result = nil
	m.reviewAttempt = nil
	m.view = ViewList
}

// OpenHistory moves LIST -> HISTORY_LIST.
func (m *Machine) OpenHistory() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewList {
		return ErrIllegalTransition
	}
	m.view = ViewHistoryList
	return nil
}

// CloseHistory moves HISTORY_LIST -> LIST.
func (m *Machine) CloseHistory() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewHistoryList {
		return ErrIllegalTransition
	}
	m.reviewAttempt = nil
	m.view = ViewList
	return nil
}

// ReviewAttempt moves HISTORY_LIST -> REVIEW over a past attempt. The
// caller reloads the exam and its questions so review renders against the
// paper the attempt was taken on.
func (m *Machine) ReviewAttempt(attempt model.ExamAttempt, exam model.Exam, questions []model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewHistoryList {
		return ErrIllegalTransition
	}
	m.exam = &exam
	m.questions = questions
	m.reviewAttempt = &attempt
	m.view = ViewReview
	return nil
}

// View returns the current screen.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// TimeLeft returns the remaining seconds and whether the countdown runs.
func (m *Machine) TimeLeft() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeLeft, m.timerActive
}

// Submitted reports whether the current exam has been graded.
func (m *Machine) Submitted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitted
}

// Exam returns the selected exam, or nil outside a session.
func (m *Machine) Exam() *model.Exam {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exam == nil {
		return nil
	}
	exam := *m.exam
	return &exam
}

// Questions returns the loaded paper. The slice is shared; callers must
// not mutate it.
func (m *Machine) Questions() []model.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions
}

// Answers returns a copy of the recorded answers.
func (m *Machine) Answers() map[int]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int]int, len(m.answers))
	for k, v := range m.answers {
		out[k] = v
	}
	return out
}

// Result returns the graded attempt after submission, or nil.
func (m *Machine) Result() *model.ExamAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return nil
	}
	r := *m.result
	return &r
}

// HistoryAttempt returns the past attempt under review, or nil. In review
// mode the answers shown come from here, not from the live answer map.
func (m *Machine) HistoryAttempt() *model.ExamAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reviewAttempt == nil {
		return nil
	}
	r := *m.reviewAttempt
	return &r
}
