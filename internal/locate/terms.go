package locate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-ports/vecture/internal/models"
)

// TermDetector flags every case-sensitive occurrence of a fixed term list.
type TermDetector struct {
	terms []string
}

// NewTermDetector returns a detector for terms. Duplicate terms are dropped;
// an empty term is rejected.
func NewTermDetector(terms []string) (*TermDetector, error) {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for i, t := range terms {
		if t == "" {
			return nil, fmt.Errorf("%w: term %d is empty", models.ErrInvalidPattern, i+1)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return &TermDetector{terms: out}, nil
}

// Category implements Detector.
func (*TermDetector) Category() models.Category { return models.CategoryCustom }

// Detect implements Detector. Occurrences of the same term never overlap;
// occurrences of different terms may.
func (d *TermDetector) Detect(text string) ([]models.Span, error) {
	var spans []models.Span
	for _, term := range d.terms {
		pos := 0
		for {
			i := strings.Index(text[pos:], term)
			if i < 0 {
				break
			}
			start := pos + i
			end := start + len(term)
			spans = append(spans, models.Span{Start: start, End: end, Category: models.CategoryCustom})
			pos = end
		}
	}
	return spans, nil
}

// ParseTerms reads a newline-delimited term list. Lines are trimmed and blank
// lines skipped.
func ParseTerms(r io.Reader) ([]string, error) {
	var terms []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		terms = append(terms, line)
	}
	return terms, scanner.Err()
}

// LoadTerms reads a term list file.
// Returns nil (no error) if the file does not exist.
func LoadTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTerms(f)
}
