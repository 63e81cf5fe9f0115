// Package locate finds candidate sensitive spans in raw document text.
//
// Each detection class is a Detector; a Locator composes any number of them
// and reports every span they flag. Classes do not suppress each other here:
// overlap resolution is the job of package resolve.
package locate

import (
	"fmt"
	"sort"

	"github.com/go-ports/vecture/internal/models"
)

// Detector flags spans of a single category.
// Implementations must be safe for concurrent use.
type Detector interface {
	Category() models.Category
	Detect(text string) ([]models.Span, error)
}

// Locator runs a set of detectors over a text.
type Locator struct {
	detectors []Detector
}

// New returns a Locator over the given detectors. A later detector replaces
// an earlier one of the same category.
func New(detectors ...Detector) *Locator {
	l := &Locator{}
	for _, d := range detectors {
		l.set(d)
	}
	return l
}

// With returns a copy of l with d added, replacing any detector of the same category.
func (l *Locator) With(d Detector) *Locator {
	out := &Locator{detectors: append([]Detector(nil), l.detectors...)}
	out.set(d)
	return out
}

func (l *Locator) set(d Detector) {
	for i, existing := range l.detectors {
		if existing.Category() == d.Category() {
			l.detectors[i] = d
			return
		}
	}
	l.detectors = append(l.detectors, d)
}

// Categories returns the categories of the registered detectors.
func (l *Locator) Categories() []models.Category {
	out := make([]models.Category, len(l.detectors))
	for i, d := range l.detectors {
		out[i] = d.Category()
	}
	return out
}

// Locate returns every span flagged by any detector, deduplicated and ordered
// by start offset, then category rank, then end offset.
func (l *Locator) Locate(text string) ([]models.Span, error) {
	if text == "" {
		return nil, nil
	}
	seen := make(map[models.Span]bool)
	var spans []models.Span
	for _, d := range l.detectors {
		found, err := d.Detect(text)
		if err != nil {
			return nil, fmt.Errorf("locate %s: %w", d.Category(), err)
		}
		for _, s := range found {
			if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
				continue
			}
			if seen[s] {
				continue
			}
			seen[s] = true
			spans = append(spans, s)
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Category != b.Category {
			return a.Category.Less(b.Category)
		}
		return a.End < b.End
	})
	return spans, nil
}

// Options selects and configures the built-in detection classes.
type Options struct {
	Classes []models.Category
	Terms   []string

	// Patterns overrides the regular expression of a structural class.
	Patterns map[models.Category]string

	// Capitalized replaces the default capitalization heuristic.
	Capitalized Detector
}

// Build constructs a Locator from opts. A non-empty term list enables the
// custom class even when it is not listed.
func Build(opts Options) (*Locator, error) {
	classes := opts.Classes
	if len(opts.Terms) > 0 && !contains(classes, models.CategoryCustom) {
		classes = append(append([]models.Category(nil), classes...), models.CategoryCustom)
	}

	l := New()
	for _, c := range classes {
		switch c {
		case models.CategoryIPv4, models.CategoryDate, models.CategoryEmail:
			pattern := builtinPatterns[c]
			if p, ok := opts.Patterns[c]; ok {
				pattern = p
			}
			d, err := NewRegexDetector(c, pattern)
			if err != nil {
				return nil, err
			}
			l.set(d)
		case models.CategoryCustom:
			if len(opts.Terms) == 0 {
				continue
			}
			d, err := NewTermDetector(opts.Terms)
			if err != nil {
				return nil, err
			}
			l.set(d)
		case models.CategoryCapitalized:
			if opts.Capitalized != nil {
				l.set(opts.Capitalized)
			} else {
				l.set(CapitalizedDetector{})
			}
		default:
			return nil, fmt.Errorf("%w: no built-in detector for class %q", models.ErrInvalidPattern, c)
		}
	}
	return l, nil
}

func contains(cs []models.Category, c models.Category) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}
