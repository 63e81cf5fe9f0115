package locate

import (
	"fmt"
	"regexp"

	"github.com/go-ports/vecture/internal/models"
)

// builtinPatterns are the default definitions of the structural classes.
var builtinPatterns = map[models.Category]string{
	models.CategoryIPv4: `\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`,
	// YYYY-MM-DD, DD.MM.YYYY, MM/DD/YYYY
	models.CategoryDate:  `\b(?:\d{4}-\d{2}-\d{2}|\d{2}\.\d{2}\.\d{4}|\d{2}/\d{2}/\d{4})\b`,
	models.CategoryEmail: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
}

// BuiltinPattern returns the default regular expression for a structural class.
func BuiltinPattern(c models.Category) (string, bool) {
	p, ok := builtinPatterns[c]
	return p, ok
}

// RegexDetector flags every non-overlapping match of a regular expression.
type RegexDetector struct {
	category models.Category
	re       *regexp.Regexp
}

// NewRegexDetector compiles pattern for category c.
func NewRegexDetector(c models.Category, pattern string) (*RegexDetector, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern for class %q", models.ErrInvalidPattern, c)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: class %q: %v", models.ErrInvalidPattern, c, err)
	}
	return &RegexDetector{category: c, re: re}, nil
}

// Category implements Detector.
func (d *RegexDetector) Category() models.Category { return d.category }

// Detect implements Detector.
func (d *RegexDetector) Detect(text string) ([]models.Span, error) {
	locs := d.re.FindAllStringIndex(text, -1)
	spans := make([]models.Span, 0, len(locs))
	for _, loc := range locs {
		if loc[0] == loc[1] {
			continue
		}
		spans = append(spans, models.Span{Start: loc[0], End: loc[1], Category: d.category})
	}
	return spans, nil
}
