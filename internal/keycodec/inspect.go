package keycodec

import (
	"time"

	"github.com/go-ports/vecture/internal/models"
)

// Summary describes a key without exposing any original text.
type Summary struct {
	KeyID      string         `json:"key_id" yaml:"key_id"`
	Version    int            `json:"version" yaml:"version"`
	Style      string         `json:"style" yaml:"style"`
	Digest     string         `json:"digest" yaml:"digest"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
	Encrypted  bool           `json:"encrypted" yaml:"encrypted"`
	Records    int            `json:"records" yaml:"records"`
	Categories map[string]int `json:"categories" yaml:"categories"`
}

// Inspect summarises p. Encrypted is left for the caller, which knows how the
// key was stored.
func Inspect(p *models.KeyPayload) Summary {
	cats := make(map[string]int)
	for cat, n := range p.CategoryCounts() {
		cats[string(cat)] = n
	}
	return Summary{
		KeyID:      p.KeyID,
		Version:    p.Version,
		Style:      p.Style,
		Digest:     p.Digest,
		CreatedAt:  p.CreatedAt,
		Records:    len(p.Records),
		Categories: cats,
	}
}
