package locate

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-ports/vecture/internal/models"
)

// CategorySecret tags credentials flagged by SecretDetector. It is not a
// built-in class and therefore ranks after all of them.
const CategorySecret models.Category = "secret"

// secretPatterns flag credentials. Where a pattern has a capture group only
// the group is flagged, so "password = hunter2" keeps its label.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sk_(?:live|test)_[a-zA-Z0-9]+`),
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`xox[abpr]-[a-zA-Z0-9-]+`),
	regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`),
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+(?:\.[a-zA-Z0-9_-]+)?`),
	regexp.MustCompile(`(?i)(?:password|passwd|secret|api[_-]?key|token)\s*[:=]\s*["']?([^\s"']+)`),
	regexp.MustCompile(`(?s)<redacted>.*?</redacted>`),
}

// SecretDetector flags API keys, tokens, private keys, password assignments
// and explicit <redacted>…</redacted> blocks, plus any extra patterns.
type SecretDetector struct {
	patterns []*regexp.Regexp
}

// NewSecretDetector returns a detector over the built-in credential patterns
// and the given extra regular expressions.
func NewSecretDetector(extra ...string) (*SecretDetector, error) {
	d := &SecretDetector{patterns: append([]*regexp.Regexp(nil), secretPatterns...)}
	for i, p := range extra {
		if p == "" {
			return nil, fmt.Errorf("%w: secret pattern %d is empty", models.ErrInvalidPattern, i+1)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: secret pattern %d: %v", models.ErrInvalidPattern, i+1, err)
		}
		d.patterns = append(d.patterns, re)
	}
	return d, nil
}

// Category implements Detector.
func (*SecretDetector) Category() models.Category { return CategorySecret }

// Detect implements Detector.
func (d *SecretDetector) Detect(text string) ([]models.Span, error) {
	var spans []models.Span
	for _, re := range d.patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			if start < end {
				spans = append(spans, models.Span{Start: start, End: end, Category: CategorySecret})
			}
		}
	}
	return spans, nil
}

// LoadPatterns reads one regular expression per line, skipping blank lines
// and lines starting with '#'. A missing file yields no patterns and no error.
func LoadPatterns(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
