// Package models defines the core data types shared by the displacement engine.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Category tags a span with the detection class that flagged it.
// Detectors outside the built-in set may introduce their own categories.
type Category string

// Built-in categories, listed in tie-break priority order.
const (
	CategoryIPv4        Category = "ipv4"
	CategoryDate        Category = "date"
	CategoryEmail       Category = "email"
	CategoryCustom      Category = "custom"
	CategoryCapitalized Category = "capitalized"
)

// BuiltinCategories lists the built-in categories in priority order.
var BuiltinCategories = []Category{
	CategoryIPv4,
	CategoryDate,
	CategoryEmail,
	CategoryCustom,
	CategoryCapitalized,
}

// DefaultCategories are the classes enabled when the caller names none.
var DefaultCategories = []Category{CategoryIPv4, CategoryDate, CategoryEmail}

// Rank returns the tie-break priority of c; lower wins.
// Unknown categories rank after every built-in.
func (c Category) Rank() int {
	for i, b := range BuiltinCategories {
		if b == c {
			return i
		}
	}
	return len(BuiltinCategories)
}

// Less orders categories by rank, falling back to the name for unknown ones.
func (c Category) Less(other Category) bool {
	rc, ro := c.Rank(), other.Rank()
	if rc != ro {
		return rc < ro
	}
	return c < other
}

// ParseCategory maps a user-supplied class name onto a built-in category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ipv4", "ip":
		return CategoryIPv4, nil
	case "date", "dates":
		return CategoryDate, nil
	case "email", "emails":
		return CategoryEmail, nil
	case "custom", "term", "terms", "customterm":
		return CategoryCustom, nil
	case "capitalized", "caps", "capitals":
		return CategoryCapitalized, nil
	}
	return "", fmt.Errorf("%w: unknown class %q", ErrInvalidPattern, s)
}

// ParseCategories parses a list of class names, dropping duplicates.
func ParseCategories(names []string) ([]Category, error) {
	seen := make(map[Category]bool, len(names))
	out := make([]Category, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		c, err := ParseCategory(n)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// Span is a half-open byte range [Start, End) of the original text.
type Span struct {
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Category Category `json:"category"`
}

// Len returns the byte length of the span.
func (s Span) Len() int { return s.End - s.Start }

// Record is one displacement: what stood at [Start, End) of the original
// and what the sanitized document shows in its place.
type Record struct {
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Original string   `json:"original"`
	Rendered string   `json:"rendered"`
	Category Category `json:"category"`
}

// Span returns the original-document span covered by r.
func (r Record) Span() Span {
	return Span{Start: r.Start, End: r.End, Category: r.Category}
}

// KeyPayload is everything needed to reverse one sever operation.
type KeyPayload struct {
	Version   int       `json:"version"`
	KeyID     string    `json:"key_id"`
	Style     string    `json:"style"`
	Digest    string    `json:"digest"` // hex SHA-256 of the sanitized bytes
	CreatedAt time.Time `json:"created_at"`
	Records   []Record  `json:"records"`
}

// CategoryCounts tallies the payload's records per category.
func (p *KeyPayload) CategoryCounts() map[Category]int {
	counts := make(map[Category]int)
	for _, r := range p.Records {
		counts[r.Category]++
	}
	return counts
}

// Severance is the ledger's account of one sever operation. It never holds
// original text, only where the artifacts went and how to find the key again.
type Severance struct {
	KeyID         string           `json:"key_id" yaml:"key_id"`
	Digest        string           `json:"digest" yaml:"digest"`
	Style         string           `json:"style" yaml:"style"`
	SourcePath    string           `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	SanitizedPath string           `json:"sanitized_path,omitempty" yaml:"sanitized_path,omitempty"`
	KeyPath       string           `json:"key_path,omitempty" yaml:"key_path,omitempty"`
	Records       int              `json:"records" yaml:"records"`
	Categories    map[Category]int `json:"categories" yaml:"categories"`
	Encrypted     bool             `json:"encrypted" yaml:"encrypted"`
	CreatedAt     time.Time        `json:"created_at" yaml:"created_at"`
}
