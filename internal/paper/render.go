package paper

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// NoAnswer marks an unanswered question in render input.
const NoAnswer = -1

// singleColumnThreshold is the option length (in runes) above which options
// are laid out in one column instead of two. Readability heuristic.
const singleColumnThreshold = 25

// optionGlyphs are the circled-number labels for options 0-3.
var optionGlyphs = [model.OptionCount]string{"①", "②", "③", "④"}

// visualBlank is the fixed-width marker substituted for "( )" in question
// text before display. Cosmetic only; stored text is never modified.
const visualBlank = "(　　　　)"

var blankPattern = regexp.MustCompile(`\(\s*\)`)

// OptionState tags an option's display state.
type OptionState string

const (
	OptionStateSelected  OptionState = "selected"
	OptionStateCorrect   OptionState = "correct"
	OptionStateIncorrect OptionState = "incorrect"
)

// TextDecorator transforms a text block before display, given the owning
// context key. The annotation engine plugs in here; nil means identity.
type TextDecorator func(contextKey, text string) string

// RenderInput is everything needed to render one question block.
type RenderInput struct {
	ExamType   model.ExamType
	Question   model.Question
	UserAnswer int // NoAnswer when blank
	ReviewMode bool
	Decorate   TextDecorator
}

// RenderedOption is one displayable choice.
type RenderedOption struct {
	Index    int         `json:"index"`
	Label    string      `json:"label"`
	Text     string      `json:"text"`
	ImageURL string      `json:"image_url,omitempty"`
	State    OptionState `json:"state,omitempty"`
}

// RenderedQuestion is the display description of one question block.
// It carries no behavior: answer selection and text selection are events
// the client sends back up.
type RenderedQuestion struct {
	Number           int              `json:"number"`
	ContextKey       string           `json:"context_key"`
	Instruction      string           `json:"instruction,omitempty"`
	Leader           bool             `json:"leader"`
	Grouped          bool             `json:"grouped"`
	Headline         bool             `json:"headline"`
	HasBox           bool             `json:"has_box"`
	Variant          Variant          `json:"variant,omitempty"`
	Passage          string           `json:"passage,omitempty"`
	ContextBox       string           `json:"context_box,omitempty"`
	Question         string           `json:"question"`
	ImageURL         string           `json:"image_url,omitempty"`
	Options          []RenderedOption `json:"options"`
	Columns          int              `json:"columns"`
	SelectionEnabled bool             `json:"selection_enabled"`
	Score            int              `json:"score"`
}

// RenderQuestion produces the display description for one question.
// Pure: identical input yields identical output, and the input question is
// never mutated.
func RenderQuestion(in RenderInput) RenderedQuestion {
	q := in.Question
	section, _ := SectionFor(in.ExamType, q.Number)
	leader := section.Start == q.Number

	decorate := in.Decorate
	if decorate == nil {
		decorate = func(_, text string) string { return text }
	}
	contextKey := model.AnnotationContextKey(q.ExamID, q.Number)

	out := RenderedQuestion{
		Number:           q.Number,
		ContextKey:       contextKey,
		Leader:           leader,
		Grouped:          section.Grouped,
		Headline:         section.Headline,
		HasBox:           section.HasBox,
		Variant:          section.Variant,
		Question:         decorate(contextKey, NormalizeBlanks(q.Question)),
		Columns:          OptionColumns(q.Options),
		SelectionEnabled: !in.ReviewMode,
		Score:            q.Score,
	}

	if leader {
		out.Instruction = instructionBanner(section)
	}

	// Grouped sections store the shared passage on the leader question only.
	if q.Passage != nil && (!section.Grouped || leader) {
		out.Passage = decorate(contextKey, *q.Passage)
	}
	if q.ContextBox != nil {
		out.ContextBox = decorate(contextKey, *q.ContextBox)
	}
	if q.ImageURL != nil {
		out.ImageURL = *q.ImageURL
	}

	out.Options = renderOptions(q, in.UserAnswer, in.ReviewMode, section.Variant)
	return out
}

func renderOptions(q model.Question, userAnswer int, review bool, variant Variant) []RenderedOption {
	options := make([]RenderedOption, 0, model.OptionCount)
	for i := 0; i < model.OptionCount && i < len(q.Options); i++ {
		opt := RenderedOption{
			Index: i,
			Label: optionGlyphs[i],
			Text:  q.Options[i],
		}
		if variant == VariantImageChoice && i < len(q.OptionImages) {
			opt.ImageURL = q.OptionImages[i]
		}

		switch {
		case review && i == q.CorrectAnswer:
			opt.State = OptionStateCorrect
		case review && i == userAnswer && userAnswer != q.CorrectAnswer:
			opt.State = OptionStateIncorrect
		case !review && i == userAnswer:
			opt.State = OptionStateSelected
		}
		options = append(options, opt)
	}
	return options
}

// OptionColumns returns 1 if any option's display text exceeds the
// single-column threshold, else 2.
func OptionColumns(options []string) int {
	for _, opt := range options {
		if utf8.RuneCountInString(opt) > singleColumnThreshold {
			return 1
		}
	}
	return 2
}

// NormalizeBlanks replaces every "( )" fill-in marker with a fixed-width
// visual blank. Display-only; never applied to stored text.
func NormalizeBlanks(s string) string {
	return blankPattern.ReplaceAllString(s, visualBlank)
}

func instructionBanner(s Section) string {
	if s.Start == s.End {
		return fmt.Sprintf("[%d] %s", s.Start, s.Instruction)
	}
	return fmt.Sprintf("[%d~%d] %s", s.Start, s.End, s.Instruction)
}
