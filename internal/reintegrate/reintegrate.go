// Package reintegrate reconstructs an original document from its sanitized
// form and the displacement records of its key.
//
// Replay never trusts absolute sanitized offsets stored anywhere: the position
// of each rendered span is derived by walking the records in order and
// accumulating the length difference between rendered and original text.
package reintegrate

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/go-ports/vecture/internal/models"
)

// Verify checks that sanitized is byte-identical to the document the key was
// cut for.
func Verify(sanitized string, payload *models.KeyPayload) error {
	if payload == nil {
		return fmt.Errorf("%w: nil key payload", models.ErrInvalidInput)
	}
	got := models.DigestOf(sanitized)
	if subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(payload.Digest))) != 1 {
		return models.ErrIntegrity
	}
	return nil
}

// Restore verifies sanitized against the payload digest and replays the
// records. On any failure it returns an empty string.
func Restore(sanitized string, payload *models.KeyPayload) (string, error) {
	if err := Verify(sanitized, payload); err != nil {
		return "", err
	}
	return Replay(sanitized, payload.Records)
}

// Replay substitutes each record's original text back over its rendered
// text, left to right. It performs no integrity check.
func Replay(sanitized string, records []models.Record) (string, error) {
	var sb strings.Builder
	sb.Grow(len(sanitized))
	cursor, shift := 0, 0
	for i, rec := range records {
		if rec.Start < 0 || rec.End < rec.Start || len(rec.Original) != rec.End-rec.Start {
			return "", fmt.Errorf("%w: record %d has inconsistent span [%d,%d) for %d bytes",
				models.ErrRecordMismatch, i, rec.Start, rec.End, len(rec.Original))
		}
		pos := rec.Start + shift
		end := pos + len(rec.Rendered)
		if pos < cursor || end > len(sanitized) || sanitized[pos:end] != rec.Rendered {
			return "", fmt.Errorf("%w: record %d not found at sanitized offset %d",
				models.ErrRecordMismatch, i, pos)
		}
		sb.WriteString(sanitized[cursor:pos])
		sb.WriteString(rec.Original)
		cursor = end
		shift += len(rec.Rendered) - len(rec.Original)
	}
	sb.WriteString(sanitized[cursor:])
	return sb.String(), nil
}
