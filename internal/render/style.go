package render

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/go-ports/vecture/internal/models"
)

// Style selects how a displaced span is drawn in the sanitized document.
type Style string

// Supported styles.
const (
	StyleClassic  Style = "CLASSIC"
	StyleBlackout Style = "BLACKOUT"
	StyleNoise    Style = "NOISE"
)

const (
	// DefaultMarker is the CLASSIC replacement text.
	DefaultMarker = "[REDACTED]"
	// DefaultGlyph is the BLACKOUT block character.
	DefaultGlyph = '█'

	noiseAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	noiseRetries  = 16
)

// ParseStyle parses a style name case-insensitively. VECTURE_NOISE is
// accepted as an alias of NOISE.
func ParseStyle(s string) (Style, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CLASSIC":
		return StyleClassic, nil
	case "BLACKOUT":
		return StyleBlackout, nil
	case "NOISE", "VECTURE_NOISE":
		return StyleNoise, nil
	}
	return "", fmt.Errorf("%w: unknown style %q", models.ErrInvalidInput, s)
}

// LengthPreserving reports whether the style keeps each span's rune length.
func (s Style) LengthPreserving() bool {
	return s == StyleBlackout || s == StyleNoise
}

// Styler maps an original span text to its rendered replacement.
type Styler interface {
	Render(original string, cat models.Category) string
}

// StylerFunc adapts a function to Styler.
type StylerFunc func(original string, cat models.Category) string

// Render implements Styler.
func (f StylerFunc) Render(original string, cat models.Category) string { return f(original, cat) }

type classic struct{ marker string }

func (s classic) Render(string, models.Category) string { return s.marker }

type blackout struct{ glyph string }

func (s blackout) Render(original string, _ models.Category) string {
	return strings.Repeat(s.glyph, utf8.RuneCountInString(original))
}

// noise draws alphanumeric strings of the original's rune length. It is
// stateful and must be used for a single run only: equal originals share an
// output, distinct originals get distinct outputs where the alphabet allows.
type noise struct {
	rng  *rand.Rand
	memo map[string]string
	used map[string]bool
}

func newNoise(seed [32]byte) *noise {
	return &noise{
		rng:  rand.New(rand.NewChaCha8(seed)),
		memo: make(map[string]string),
		used: make(map[string]bool),
	}
}

func (s *noise) Render(original string, _ models.Category) string {
	if out, ok := s.memo[original]; ok {
		return out
	}
	n := utf8.RuneCountInString(original)
	var out string
	for attempt := 0; attempt < noiseRetries; attempt++ {
		out = s.draw(n)
		if !s.used[out] && out != original {
			break
		}
	}
	s.memo[original] = out
	s.used[out] = true
	return out
}

func (s *noise) draw(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = noiseAlphabet[s.rng.IntN(len(noiseAlphabet))]
	}
	return string(b)
}

func randomSeed() [32]byte {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("vecture: crypto/rand unavailable: " + err.Error())
	}
	return seed
}
