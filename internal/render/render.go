// Package render turns a canonical span list into a sanitized document and,
// in lock-step, the displacement records that undo it.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-ports/vecture/internal/models"
	"github.com/go-ports/vecture/internal/resolve"
)

// Renderer renders documents in one style. A Renderer is immutable and safe
// for concurrent use; per-run state lives inside Render.
type Renderer struct {
	style  Style
	marker string
	glyph  rune
	seed   *[32]byte
	styler Styler
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMarker sets the CLASSIC replacement text.
func WithMarker(marker string) Option {
	return func(r *Renderer) { r.marker = marker }
}

// WithGlyph sets the BLACKOUT block character.
func WithGlyph(glyph rune) Option {
	return func(r *Renderer) { r.glyph = glyph }
}

// WithSeed fixes the NOISE random source, making output reproducible.
func WithSeed(seed [32]byte) Option {
	return func(r *Renderer) { r.seed = &seed }
}

// WithStyler replaces the built-in styler for the renderer's style. The
// styler must be free of per-run state or safe to share between runs.
func WithStyler(s Styler) Option {
	return func(r *Renderer) { r.styler = s }
}

// New returns a Renderer for style.
func New(style Style, opts ...Option) (*Renderer, error) {
	r := &Renderer{style: style, marker: DefaultMarker, glyph: DefaultGlyph}
	for _, o := range opts {
		o(r)
	}
	switch style {
	case StyleClassic:
		if r.marker == "" {
			return nil, fmt.Errorf("%w: empty CLASSIC marker", models.ErrInvalidInput)
		}
	case StyleBlackout:
		if !utf8.ValidRune(r.glyph) {
			return nil, fmt.Errorf("%w: invalid BLACKOUT glyph %U", models.ErrInvalidInput, r.glyph)
		}
	case StyleNoise:
	default:
		return nil, fmt.Errorf("%w: unknown style %q", models.ErrInvalidInput, style)
	}
	return r, nil
}

// Style returns the renderer's style.
func (r *Renderer) Style() Style { return r.style }

func (r *Renderer) newStyler() Styler {
	if r.styler != nil {
		return r.styler
	}
	switch r.style {
	case StyleBlackout:
		return blackout{glyph: string(r.glyph)}
	case StyleNoise:
		seed := randomSeed()
		if r.seed != nil {
			seed = *r.seed
		}
		return newNoise(seed)
	default:
		return classic{marker: r.marker}
	}
}

// Render walks spans left to right, copying text between them verbatim and
// substituting the styled replacement inside them. spans must be canonical
// (see resolve.IsCanonical) and lie within text.
func (r *Renderer) Render(text string, spans []models.Span) (string, []models.Record, error) {
	if !resolve.IsCanonical(spans) {
		return "", nil, fmt.Errorf("%w: spans are not canonical", models.ErrInvalidInput)
	}
	if n := len(spans); n > 0 && spans[n-1].End > len(text) {
		return "", nil, fmt.Errorf("%w: span [%d,%d) exceeds text length %d",
			models.ErrInvalidInput, spans[n-1].Start, spans[n-1].End, len(text))
	}

	styler := r.newStyler()
	var sb strings.Builder
	sb.Grow(len(text))
	records := make([]models.Record, 0, len(spans))
	cursor := 0
	for _, s := range spans {
		sb.WriteString(text[cursor:s.Start])
		original := text[s.Start:s.End]
		rendered := styler.Render(original, s.Category)
		sb.WriteString(rendered)
		records = append(records, models.Record{
			Start:    s.Start,
			End:      s.End,
			Original: original,
			Rendered: rendered,
			Category: s.Category,
		})
		cursor = s.End
	}
	sb.WriteString(text[cursor:])
	return sb.String(), records, nil
}

// Render is a convenience wrapper around New(style).Render.
func Render(text string, spans []models.Span, style Style) (string, []models.Record, error) {
	r, err := New(style)
	if err != nil {
		return "", nil, err
	}
	return r.Render(text, spans)
}
