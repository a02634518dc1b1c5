// Package annotation implements persistent text highlighting: matching
// saved annotations against rendered text and wrapping the hits in mark
// elements the client styles and wires click handlers to.
package annotation

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

// Apply decorates text with every live annotation, in slice order (the
// store returns them oldest first, so later highlights win on overlap).
// Matching is case-insensitive on the literal annotation text; tombstones
// and empty-text annotations are skipped. activeID marks one annotation as
// currently open in the note editor.
func Apply(text string, annotations []model.Annotation, activeID uuid.UUID) string {
	for _, a := range annotations {
		if a.Deleted() || a.Text == "" {
			continue
		}

		pattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(a.Text))
		if err != nil {
			// QuoteMeta makes this near-impossible; skip rather than fail the render.
			continue
		}

		open := openTag(a, a.ID == activeID)
		text = pattern.ReplaceAllStringFunc(text, func(match string) string {
			return open + match + "</mark>"
		})
	}
	return text
}

func openTag(a model.Annotation, active bool) string {
	class := "annotation-mark"
	if a.Color != nil {
		class += " highlight-" + string(*a.Color)
	} else {
		// Note without color renders as an underline so the note stays reachable.
		class += " underline-yellow"
	}
	if a.Note != "" {
		class += " has-note"
	}
	if active {
		class += " active"
	}
	return fmt.Sprintf(`<mark data-id="%s" class="%s">`, a.ID, class)
}

// Sidebar filters a learner's annotations down to the live noted ones, in
// storage order, for the review sidebar listing. Plain highlights without a
// note stay inline-only; editingID admits the one annotation whose note is
// currently open in the editor even before any text is typed.
func Sidebar(annotations []model.Annotation, editingID uuid.UUID) []model.Annotation {
	out := make([]model.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a.Deleted() {
			continue
		}
		if a.Note == "" && a.ID != editingID {
			continue
		}
		out = append(out, a)
	}
	return out
}
