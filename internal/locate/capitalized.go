package locate

import (
	"unicode"
	"unicode/utf8"

	"github.com/go-ports/vecture/internal/models"
)

// CapitalizedDetector flags maximal runs of capitalized words, such as
// personal or company names. A word qualifies when it has at least two
// letters, the first upper-case and the rest lower-case. Words that open a
// sentence are skipped. Words in a run are separated by a single space or tab.
type CapitalizedDetector struct{}

// Category implements Detector.
func (CapitalizedDetector) Category() models.Category { return models.CategoryCapitalized }

// Detect implements Detector.
func (CapitalizedDetector) Detect(text string) ([]models.Span, error) {
	var spans []models.Span
	open := false
	var cur models.Span

	flush := func() {
		if open {
			spans = append(spans, cur)
			open = false
		}
	}

	for _, w := range words(text) {
		if !capitalized(text[w[0]:w[1]]) || sentenceStart(text, w[0]) {
			flush()
			continue
		}
		if open && singleBlank(text[cur.End:w[0]]) {
			cur.End = w[1]
			continue
		}
		flush()
		cur = models.Span{Start: w[0], End: w[1], Category: models.CategoryCapitalized}
		open = true
	}
	flush()
	return spans, nil
}

// words returns [start, end) byte offsets of maximal letter runs that are not
// glued to digits or underscores.
func words(text string) [][2]int {
	var out [][2]int
	start := -1
	glued := false
	for i, r := range text {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
				glued = prevGlue(text, i)
			}
			continue
		}
		if start >= 0 {
			if !glued && !isGlue(r) {
				out = append(out, [2]int{start, i})
			}
			start = -1
		}
	}
	if start >= 0 && !glued {
		out = append(out, [2]int{start, len(text)})
	}
	return out
}

func isGlue(r rune) bool { return unicode.IsDigit(r) || r == '_' }

func prevGlue(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isGlue(r)
}

func capitalized(w string) bool {
	n := 0
	for i, r := range w {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
		} else if !unicode.IsLower(r) {
			return false
		}
		n++
	}
	return n >= 2
}

// sentenceStart reports whether the word at offset i opens a sentence.
func sentenceStart(text string, i int) bool {
	j := i
	for j > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:j])
		if !unicode.IsSpace(r) {
			return (r == '.' || r == '!' || r == '?') && j < i
		}
		j -= size
	}
	return true
}

func singleBlank(gap string) bool {
	return gap == " " || gap == "\t"
}
