// Package resolve merges candidate spans into a canonical, sorted,
// non-overlapping span list.
package resolve

import (
	"sort"

	"github.com/go-ports/vecture/internal/models"
)

// Resolve merges overlapping and zero-gap-adjacent spans. A merged span takes
// the category of the candidate that started first; candidates starting at the
// same offset are ordered by category rank. Empty or inverted spans are
// discarded. The input slice is not modified.
func Resolve(candidates []models.Span) []models.Span {
	spans := make([]models.Span, 0, len(candidates))
	for _, s := range candidates {
		if s.Start >= 0 && s.End > s.Start {
			spans = append(spans, s)
		}
	}
	if len(spans) == 0 {
		return nil
	}

	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Category != b.Category {
			return a.Category.Less(b.Category)
		}
		return a.End > b.End
	})

	out := []models.Span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// IsCanonical reports whether spans is sorted, non-empty per span, and leaves
// a gap of at least one byte between neighbours, i.e. whether Resolve would
// return it unchanged.
func IsCanonical(spans []models.Span) bool {
	for i, s := range spans {
		if s.Start < 0 || s.End <= s.Start {
			return false
		}
		if i > 0 && s.Start <= spans[i-1].End {
			return false
		}
	}
	return true
}
