// Package paper holds the static structure of the exam papers and the pure
// rendering logic that turns a flat question array into displayable blocks.
package paper

import (
	"fmt"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// PaperSize is the fixed number of questions on every paper.
const PaperSize = 50

// Variant selects a non-default rendering mode for a section.
type Variant string

const (
	// VariantImageOptional renders the question image above the prompt when present.
	VariantImageOptional Variant = "IMAGE_OPTIONAL"
	// VariantImageChoice renders the four options as images instead of text.
	VariantImageChoice Variant = "IMAGE_CHOICE"
)

// Section maps a contiguous question-number range to its instruction banner
// and rendering flags. Grouped sections share one passage, stored on the
// leader (range start) question.
type Section struct {
	Start       int
	End         int
	Instruction string
	Variant     Variant
	Grouped     bool
	Headline    bool
	HasBox      bool
}

// Contains reports whether the question number falls in this section.
func (s Section) Contains(n int) bool {
	return n >= s.Start && n <= s.End
}

// StructureIntegrityError reports a malformed section table. It is fatal:
// the tables are authored content and must partition 1..50 exactly.
type StructureIntegrityError struct {
	ExamType model.ExamType
	Detail   string
}

func (e *StructureIntegrityError) Error() string {
	return fmt.Sprintf("section structure for %s: %s", e.ExamType, e.Detail)
}

// readingStructure covers the reading paper, questions 1..50.
var readingStructure = []Section{
	{Start: 1, End: 4, Instruction: "(　　)에 들어갈 말로 가장 알맞은 것을 고르십시오.", HasBox: true},
	{Start: 5, End: 8, Instruction: "다음은 무엇에 대한 글인지 고르십시오."},
	{Start: 9, End: 12, Instruction: "다음 글 또는 그래프의 내용과 같은 것을 고르십시오.", Variant: VariantImageOptional},
	{Start: 13, End: 15, Instruction: "다음을 순서에 맞게 배열한 것을 고르십시오."},
	{Start: 16, End: 18, Instruction: "(　　)에 들어갈 말로 가장 알맞은 것을 고르십시오."},
	{Start: 19, End: 20, Instruction: "다음을 읽고 물음에 답하십시오.", Grouped: true},
	{Start: 21, End: 22, Instruction: "다음을 읽고 물음에 답하십시오.", Grouped: true},
	{Start: 23, End: 24, Instruction: "다음을 읽고 물음에 답하십시오.", Grouped: true},
	{Start: 25, End: 27, Instruction: "다음 신문 기사의 제목을 가장 잘 설명한 것을 고르십시오.", Headline: true},
	{Start: 28, End: 31, Instruction: "(　　)에 들어갈 말로 가장 알맞은 것을 고르십시오."},
	{Start: 32, End: 34, Instruction: "다음 글의 내용과 같은 것을 고르십시오."},
	{Start: 35, End: 38, Instruction: "다음 글의 주제로 가장 알맞은 것을 고르십시오."},
	{Start: 39, End: 41, Instruction: "주어진 문장이 들어갈 곳으로 가장 알맞은 것을 고르십시오.", HasBox: true},
	{Start: 42, End: 43, Instruction: "다음을 읽고 물음에 답하십시오.", Grouped: true},
	{Start: 44, End: 45, Instruction: "다음을 읽고 물음에 답하십시오.", Grouped: true},
	{Start: 46, End: 47, Instruction: "다음을 읽고 물음에 답하십시오.", Grouped: true},
	{Start: 48, End: 50, Instruction: "다음을 읽고 물음에 답하십시오.", Grouped: true},
}

// listeningStructure covers the listening paper, questions 1..50.
var listeningStructure = []Section{
	{Start: 1, End: 3, Instruction: "다음을 듣고 알맞은 그림을 고르십시오.", Variant: VariantImageChoice},
	{Start: 4, End: 8, Instruction: "다음 대화를 잘 듣고 이어질 수 있는 말을 고르십시오."},
	{Start: 9, End: 12, Instruction: "다음 대화를 잘 듣고 여자가 이어서 할 행동으로 알맞은 것을 고르십시오."},
	{Start: 13, End: 16, Instruction: "다음을 듣고 내용과 일치하는 것을 고르십시오."},
	{Start: 17, End: 20, Instruction: "다음을 듣고 남자의 중심 생각을 고르십시오."},
	{Start: 21, End: 22, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 23, End: 24, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 25, End: 26, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 27, End: 28, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 29, End: 30, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 31, End: 32, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 33, End: 34, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 35, End: 36, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 37, End: 38, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 39, End: 40, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 41, End: 42, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 43, End: 44, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 45, End: 46, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 47, End: 48, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
	{Start: 49, End: 50, Instruction: "다음을 듣고 물음에 답하십시오.", Grouped: true},
}

// Structure returns the fixed section table for an exam type.
func Structure(t model.ExamType) []Section {
	if t == model.ExamTypeListening {
		return listeningStructure
	}
	return readingStructure
}

// SectionFor returns the section containing the question number.
func SectionFor(t model.ExamType, n int) (Section, bool) {
	for _, s := range Structure(t) {
		if s.Contains(n) {
			return s, true
		}
	}
	return Section{}, false
}

// IsSectionLeader reports whether the question number starts its section.
// The leader carries the instruction banner and, for grouped sections, the
// shared passage.
func IsSectionLeader(t model.ExamType, n int) bool {
	s, ok := SectionFor(t, n)
	return ok && s.Start == n
}

// ValidateStructures checks both fixed tables at startup. The ranges must
// partition 1..PaperSize without gaps or overlaps; any violation is fatal.
func ValidateStructures() error {
	for _, t := range []model.ExamType{model.ExamTypeReading, model.ExamTypeListening} {
		if err := validateSections(t, Structure(t)); err != nil {
			return err
		}
	}
	return nil
}

func validateSections(t model.ExamType, sections []Section) error {
	if len(sections) == 0 {
		return &StructureIntegrityError{ExamType: t, Detail: "empty section table"}
	}

	next := 1
	for i, s := range sections {
		if s.Start > s.End {
			return &StructureIntegrityError{
				ExamType: t,
				Detail:   fmt.Sprintf("section %d has inverted range [%d,%d]", i, s.Start, s.End),
			}
		}
		if s.Start != next {
			return &StructureIntegrityError{
				ExamType: t,
				Detail:   fmt.Sprintf("expected section starting at %d, got [%d,%d]", next, s.Start, s.End),
			}
		}
		next = s.End + 1
	}

	if next != PaperSize+1 {
		return &StructureIntegrityError{
			ExamType: t,
			Detail:   fmt.Sprintf("sections end at %d, expected %d", next-1, PaperSize),
		}
	}
	return nil
}
