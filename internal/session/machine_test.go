package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

func testExam(minutes int) model.Exam {
	return model.Exam{
		ID:               uuid.New(),
		Type:             model.ExamTypeReading,
		Title:            "제83회 읽기",
		Round:            83,
		PaperType:        model.PaperTypeA,
		TimeLimitMinutes: minutes,
		Status:           model.ExamStatusPublished,
	}
}

func testPaper(examID uuid.UUID) []model.Question {
	questions := make([]model.Question, 0, 50)
	for n := 1; n <= 50; n++ {
		questions = append(questions, model.Question{
			ID:            uuid.New(),
			ExamID:        examID,
			Number:        n,
			Question:      "문제",
			Options:       []string{"①", "②", "③", "④"},
			CorrectAnswer: n % 4,
			Score:         model.DefaultQuestionScore,
		})
	}
	return questions
}

func startedMachine(t *testing.T, minutes int, onSubmit SubmitFunc) (*Machine, model.Exam) {
	t.Helper()
	exam := testExam(minutes)
	m := New(42, onSubmit)
	require.NoError(t, m.Select(exam, testPaper(exam.ID)))
	require.NoError(t, m.Start())
	return m, exam
}

func TestLifecycleHappyPath(t *testing.T) {
	var submitted []model.ExamAttempt
	m, exam := startedMachine(t, 70, func(a model.ExamAttempt) {
		submitted = append(submitted, a)
	})

	assert.Equal(t, ViewExam, m.View())
	left, active := m.TimeLeft()
	assert.Equal(t, 70*60, left)
	assert.True(t, active)

	require.NoError(t, m.Answer(1, 1)) // correct (1%4==1)
	require.NoError(t, m.Answer(2, 0)) // wrong

	attempt, err := m.Submit()
	require.NoError(t, err)
	assert.Equal(t, ViewResult, m.View())
	assert.Equal(t, 42, attempt.LearnerID)
	assert.Equal(t, exam.ID, attempt.ExamID)
	assert.Equal(t, 1, attempt.CorrectCount)
	assert.Equal(t, 2, attempt.Score)
	assert.Equal(t, 100, attempt.TotalScore)
	require.Len(t, submitted, 1)

	require.NoError(t, m.Review())
	assert.Equal(t, ViewReview, m.View())

	m.BackToList()
	assert.Equal(t, ViewList, m.View())
	assert.Nil(t, m.Exam())
	assert.Empty(t, m.Answers())
}

func TestScoreDefaultPointValue(t *testing.T) {
	exam := testExam(70)
	paper := testPaper(exam.ID)
	for i := range paper {
		paper[i].Score = 0
	}

	answers := map[int]int{}
	for n := 1; n <= 25; n++ {
		answers[n] = n % 4
	}

	score, total, correct := Score(paper, answers)
	assert.Equal(t, 50, score)
	assert.Equal(t, 100, total)
	assert.Equal(t, 25, correct)
}

func TestTimerAutoSubmitsExactlyOnce(t *testing.T) {
	submissions := 0
	m, _ := startedMachine(t, 60, func(model.ExamAttempt) { submissions++ })

	var fired int
	for i := 0; i < 60*60+10; i++ {
		if _, auto := m.Tick(); auto {
			fired++
		}
	}

	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, submissions)
	assert.Equal(t, ViewResult, m.View())
	left, active := m.TimeLeft()
	assert.Equal(t, 0, left)
	assert.False(t, active)
}

func TestPauseAndResume(t *testing.T) {
	m, _ := startedMachine(t, 60, nil)

	_, _ = m.Tick()
	_, _ = m.Tick()
	require.NoError(t, m.Pause())

	before, active := m.TimeLeft()
	assert.False(t, active)
	for i := 0; i < 100; i++ {
		m.Tick()
	}
	after, _ := m.TimeLeft()
	assert.Equal(t, before, after, "paused timer must not move")

	require.NoError(t, m.Resume())
	m.Tick()
	final, active := m.TimeLeft()
	assert.True(t, active)
	assert.Equal(t, before-1, final)
}

func TestResumeAfterExpiryRejected(t *testing.T) {
	m, _ := startedMachine(t, 1, nil)

	for i := 0; i < 60; i++ {
		m.Tick()
	}
	assert.True(t, m.Submitted())
	assert.ErrorIs(t, m.Resume(), ErrIllegalTransition)
}

func TestDoubleSubmitIsIdempotent(t *testing.T) {
	submissions := 0
	m, _ := startedMachine(t, 70, func(model.ExamAttempt) { submissions++ })

	first, err := m.Submit()
	require.NoError(t, err)
	second, err := m.Submit()
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, submissions)
}

func TestAnswerValidation(t *testing.T) {
	m, _ := startedMachine(t, 70, nil)

	assert.ErrorIs(t, m.Answer(0, 1), ErrAnswerOutOfRange)
	assert.ErrorIs(t, m.Answer(51, 1), ErrAnswerOutOfRange)
	assert.ErrorIs(t, m.Answer(1, -1), ErrAnswerOutOfRange)
	assert.ErrorIs(t, m.Answer(1, 4), ErrAnswerOutOfRange)

	require.NoError(t, m.Answer(1, 1))
	require.NoError(t, m.Answer(1, 2), "re-answering overwrites")
	assert.Equal(t, 2, m.Answers()[1])

	_, err := m.Submit()
	require.NoError(t, err)
	assert.ErrorIs(t, m.Answer(1, 3), ErrIllegalTransition)
}

func TestIllegalTransitions(t *testing.T) {
	exam := testExam(70)
	m := New(1, nil)

	assert.ErrorIs(t, m.Start(), ErrIllegalTransition)
	assert.ErrorIs(t, m.Pause(), ErrIllegalTransition)
	assert.ErrorIs(t, m.Review(), ErrIllegalTransition)
	_, err := m.Submit()
	assert.ErrorIs(t, err, ErrIllegalTransition)

	require.NoError(t, m.Select(exam, testPaper(exam.ID)))
	assert.ErrorIs(t, m.Select(exam, nil), ErrIllegalTransition, "select is LIST-only")
	assert.ErrorIs(t, m.OpenHistory(), ErrIllegalTransition)
}

func TestTryAgainResetsState(t *testing.T) {
	m, _ := startedMachine(t, 70, nil)

	require.NoError(t, m.Answer(1, 1))
	_, err := m.Submit()
	require.NoError(t, err)

	require.NoError(t, m.TryAgain())
	assert.Equal(t, ViewCover, m.View())
	assert.Empty(t, m.Answers())
	assert.False(t, m.Submitted())
	assert.Nil(t, m.Result())
	require.NotNil(t, m.Exam(), "try again keeps the same exam")

	require.NoError(t, m.Start())
	left, _ := m.TimeLeft()
	assert.Equal(t, 70*60, left, "fresh run gets the full time limit")
}

func TestHistoryFlow(t *testing.T) {
	exam := testExam(70)
	paper := testPaper(exam.ID)
	past := model.ExamAttempt{
		ID:        uuid.New(),
		LearnerID: 1,
		ExamID:    exam.ID,
		ExamTitle: exam.Title,
		Answers:   map[int]int{1: 1, 2: 0},
	}

	m := New(1, nil)
	require.NoError(t, m.OpenHistory())
	assert.Equal(t, ViewHistoryList, m.View())

	require.NoError(t, m.ReviewAttempt(past, exam, paper))
	assert.Equal(t, ViewReview, m.View())
	require.NotNil(t, m.HistoryAttempt())
	assert.Equal(t, past.ID, m.HistoryAttempt().ID)

	m.BackToList()
	assert.Equal(t, ViewList, m.View())
	assert.Nil(t, m.HistoryAttempt())
}

func TestCloseHistory(t *testing.T) {
	m := New(1, nil)
	require.NoError(t, m.OpenHistory())
	require.NoError(t, m.CloseHistory())
	assert.Equal(t, ViewList, m.View())
	assert.ErrorIs(t, m.CloseHistory(), ErrIllegalTransition)
}

func TestRestoreRebuildsRunningExam(t *testing.T) {
	exam := testExam(70)
	paper := testPaper(exam.ID)

	m := New(7, nil)
	m.Restore(exam, paper, map[int]int{3: 2}, 1200)

	assert.Equal(t, ViewExam, m.View())
	left, active := m.TimeLeft()
	assert.Equal(t, 1200, left)
	assert.True(t, active)
	assert.Equal(t, 2, m.Answers()[3])

	require.NoError(t, m.Answer(4, 1))
	_, err := m.Submit()
	require.NoError(t, err)
}
