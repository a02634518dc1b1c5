package paper

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

func TestBackfillFillsToFullPaper(t *testing.T) {
	examID := uuid.New()
	authored := []model.Question{
		sampleQuestion(3),
		sampleQuestion(17),
		sampleQuestion(50),
	}
	for i := range authored {
		authored[i].ExamID = examID
	}

	full := Backfill(examID, authored)

	require.Len(t, full, PaperSize)
	for i, q := range full {
		assert.Equal(t, i+1, q.Number, "numbers must be contiguous")
	}
	assert.Equal(t, authored[0].ID, full[2].ID)
	assert.Equal(t, authored[1].ID, full[16].ID)
	assert.Equal(t, authored[2].ID, full[49].ID)
	assert.Equal(t, placeholderText, full[0].Question)
	assert.Equal(t, examID, full[0].ExamID)
}

func TestBackfillEmptySetYieldsFullPlaceholderPaper(t *testing.T) {
	examID := uuid.New()

	// An exam with no authored questions is valid but empty: learners get
	// a complete placeholder paper, never an error.
	full := Backfill(examID, []model.Question{})

	require.Len(t, full, PaperSize)
	for i, q := range full {
		assert.Equal(t, i+1, q.Number)
		assert.Equal(t, placeholderText, q.Question)
		assert.Equal(t, examID, q.ExamID)
	}
}

func TestBackfillDropsDuplicatesAndOutOfRange(t *testing.T) {
	examID := uuid.New()
	first := sampleQuestion(7)
	second := sampleQuestion(7)
	outLow := sampleQuestion(0)
	outHigh := sampleQuestion(51)

	full := Backfill(examID, []model.Question{first, second, outLow, outHigh})

	require.Len(t, full, PaperSize)
	assert.Equal(t, first.ID, full[6].ID, "first occurrence of a duplicate number wins")
	assert.Equal(t, placeholderText, full[0].Question)
	assert.Equal(t, placeholderText, full[49].Question)
}

func TestBackfillDefaultsZeroScore(t *testing.T) {
	q := sampleQuestion(1)
	q.Score = 0

	full := Backfill(q.ExamID, []model.Question{q})

	assert.Equal(t, model.DefaultQuestionScore, full[0].Score)
	for _, filled := range full[1:] {
		assert.Equal(t, model.DefaultQuestionScore, filled.Score)
	}
}

func TestBackfillDoesNotMutateInput(t *testing.T) {
	q := sampleQuestion(1)
	q.Score = 0
	in := []model.Question{q}

	Backfill(q.ExamID, in)

	assert.Equal(t, 0, in[0].Score)
}
