package paper

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

func sampleQuestion(number int) model.Question {
	return model.Question{
		ID:            uuid.New(),
		ExamID:        uuid.New(),
		Number:        number,
		Question:      "빈칸에 들어갈 말을 고르십시오.",
		Options:       []string{"가방", "학교", "날씨", "약속"},
		CorrectAnswer: 2,
		Score:         model.DefaultQuestionScore,
	}
}

func TestOptionColumns(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		want    int
	}{
		{"short options two columns", []string{"가방", "학교", "날씨", "약속"}, 2},
		{"exactly threshold stays two", []string{strings.Repeat("가", 25), "학교", "날씨", "약속"}, 2},
		{"one long option forces one", []string{strings.Repeat("가", 26), "학교", "날씨", "약속"}, 1},
		{"rune count not byte count", []string{strings.Repeat("a", 26), "b", "c", "d"}, 1},
		{"empty set", nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OptionColumns(tt.options))
		})
	}
}

func TestNormalizeBlanks(t *testing.T) {
	assert.Equal(t, visualBlank, NormalizeBlanks("( )"))
	assert.Equal(t, visualBlank, NormalizeBlanks("()"))
	assert.Equal(t, visualBlank, NormalizeBlanks("(   )"))
	assert.Equal(t, "앞 "+visualBlank+" 뒤", NormalizeBlanks("앞 (  ) 뒤"))
	assert.Equal(t, "(단어)", NormalizeBlanks("(단어)"), "non-empty parens untouched")
}

func TestRenderQuestionOptionGlyphs(t *testing.T) {
	out := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeReading,
		Question:   sampleQuestion(5),
		UserAnswer: NoAnswer,
	})

	require.Len(t, out.Options, 4)
	assert.Equal(t, "①", out.Options[0].Label)
	assert.Equal(t, "②", out.Options[1].Label)
	assert.Equal(t, "③", out.Options[2].Label)
	assert.Equal(t, "④", out.Options[3].Label)
	for _, opt := range out.Options {
		assert.Empty(t, opt.State)
	}
	assert.True(t, out.SelectionEnabled)
}

func TestRenderQuestionSelectedState(t *testing.T) {
	out := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeReading,
		Question:   sampleQuestion(5),
		UserAnswer: 1,
	})

	assert.Equal(t, OptionStateSelected, out.Options[1].State)
	assert.Empty(t, out.Options[0].State)
	assert.Empty(t, out.Options[2].State)
}

func TestRenderQuestionReviewTagging(t *testing.T) {
	q := sampleQuestion(5) // correct answer is 2

	t.Run("wrong answer tags both", func(t *testing.T) {
		out := RenderQuestion(RenderInput{
			ExamType:   model.ExamTypeReading,
			Question:   q,
			UserAnswer: 0,
			ReviewMode: true,
		})
		assert.Equal(t, OptionStateIncorrect, out.Options[0].State)
		assert.Equal(t, OptionStateCorrect, out.Options[2].State)
		assert.False(t, out.SelectionEnabled)
	})

	t.Run("right answer tags correct only", func(t *testing.T) {
		out := RenderQuestion(RenderInput{
			ExamType:   model.ExamTypeReading,
			Question:   q,
			UserAnswer: 2,
			ReviewMode: true,
		})
		assert.Equal(t, OptionStateCorrect, out.Options[2].State)
		for i, opt := range out.Options {
			if i != 2 {
				assert.Empty(t, opt.State)
			}
		}
	})

	t.Run("unanswered tags correct only", func(t *testing.T) {
		out := RenderQuestion(RenderInput{
			ExamType:   model.ExamTypeReading,
			Question:   q,
			UserAnswer: NoAnswer,
			ReviewMode: true,
		})
		assert.Equal(t, OptionStateCorrect, out.Options[2].State)
		assert.Empty(t, out.Options[0].State)
	})
}

func TestRenderQuestionInstructionOnLeaderOnly(t *testing.T) {
	leader := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeReading,
		Question:   sampleQuestion(1),
		UserAnswer: NoAnswer,
	})
	follower := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeReading,
		Question:   sampleQuestion(2),
		UserAnswer: NoAnswer,
	})

	assert.True(t, leader.Leader)
	assert.Equal(t, "[1~4] (　　)에 들어갈 말로 가장 알맞은 것을 고르십시오.", leader.Instruction)
	assert.False(t, follower.Leader)
	assert.Empty(t, follower.Instruction)
}

func TestRenderQuestionGroupedPassageOnLeaderOnly(t *testing.T) {
	passage := "긴 지문입니다."

	leaderQ := sampleQuestion(19)
	leaderQ.Passage = &passage
	followerQ := sampleQuestion(20)
	followerQ.Passage = &passage

	leader := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeReading,
		Question:   leaderQ,
		UserAnswer: NoAnswer,
	})
	follower := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeReading,
		Question:   followerQ,
		UserAnswer: NoAnswer,
	})

	assert.True(t, leader.Grouped)
	assert.Equal(t, passage, leader.Passage)
	assert.Empty(t, follower.Passage, "grouped followers never repeat the passage")
}

func TestRenderQuestionUngroupedPassageAlwaysShown(t *testing.T) {
	passage := "문항별 지문"
	q := sampleQuestion(10) // section 9-12, not grouped
	q.Passage = &passage

	out := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeReading,
		Question:   q,
		UserAnswer: NoAnswer,
	})
	assert.Equal(t, passage, out.Passage)
	assert.False(t, out.Leader)
}

func TestRenderQuestionDecoratorHook(t *testing.T) {
	passage := "중요한 부분"
	q := sampleQuestion(9)
	q.Passage = &passage

	var seenKeys []string
	out := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeReading,
		Question:   q,
		UserAnswer: NoAnswer,
		Decorate: func(contextKey, text string) string {
			seenKeys = append(seenKeys, contextKey)
			return "<mark>" + text + "</mark>"
		},
	})

	wantKey := model.AnnotationContextKey(q.ExamID, 9)
	assert.Equal(t, wantKey, out.ContextKey)
	for _, k := range seenKeys {
		assert.Equal(t, wantKey, k)
	}
	assert.Equal(t, "<mark>"+passage+"</mark>", out.Passage)
	assert.True(t, strings.HasPrefix(out.Question, "<mark>"))
}

func TestRenderQuestionImageChoiceVariant(t *testing.T) {
	q := sampleQuestion(1)
	q.OptionImages = []string{"/u/a.png", "/u/b.png", "/u/c.png", "/u/d.png"}

	out := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeListening,
		Question:   q,
		UserAnswer: NoAnswer,
	})

	require.Equal(t, VariantImageChoice, out.Variant)
	for i, opt := range out.Options {
		assert.Equal(t, q.OptionImages[i], opt.ImageURL)
	}
}

func TestRenderQuestionBlankNormalization(t *testing.T) {
	q := sampleQuestion(1)
	q.Question = "이 문장의 ( )에 알맞은 말은?"

	out := RenderQuestion(RenderInput{
		ExamType:   model.ExamTypeReading,
		Question:   q,
		UserAnswer: NoAnswer,
	})
	assert.Contains(t, out.Question, visualBlank)
	assert.NotContains(t, out.Question, "( )")
}
