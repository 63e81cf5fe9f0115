package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/go-ports/vecture/internal/keycodec"
	"github.com/go-ports/vecture/internal/models"
	"github.com/go-ports/vecture/internal/resolve"
)

// KeySuffix is appended to a sanitized file's name to form its key path.
const KeySuffix = ".vecture"

// SeverResult is the in-memory outcome of a sever operation.
type SeverResult struct {
	Sanitized string
	Key       []byte
	Payload   *models.KeyPayload
	Encrypted bool
}

// FileResult describes the artifacts written for one severed file.
type FileResult struct {
	SourcePath    string         `json:"source_path"`
	SanitizedPath string         `json:"sanitized_path"`
	KeyPath       string         `json:"key_path"`
	KeyID         string         `json:"key_id"`
	Records       int            `json:"records"`
	Categories    map[string]int `json:"categories"`
	Encrypted     bool           `json:"encrypted"`
}

// Sever runs the full pipeline over text: locate → resolve → render → encode.
// The result is recorded in the ledger unless opts.NoLedger is set.
func (s *Service) Sever(ctx context.Context, text string, opts SeverOptions) (*SeverResult, error) {
	res, err := s.sever(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	if !opts.NoLedger {
		s.record(res, "", "", "")
	}
	return res, nil
}

func (s *Service) sever(ctx context.Context, text string, opts SeverOptions) (*SeverResult, error) {
	loc, err := opts.locator()
	if err != nil {
		return nil, err
	}
	rnd, err := opts.renderer()
	if err != nil {
		return nil, err
	}

	candidates, err := loc.Locate(text)
	if err != nil {
		return nil, fmt.Errorf("locate: %w", err)
	}
	spans := resolve.Resolve(candidates)
	sanitized, records, err := rnd.Render(text, spans)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	payload := keycodec.Encode(records, sanitized, string(rnd.Style()))
	key, err := keycodec.Marshal(ctx, payload, s.keyOptions(opts))
	if err != nil {
		return nil, err
	}
	slog.Debug("severed", "key_id", payload.KeyID, "records", len(records), "style", payload.Style)
	return &SeverResult{
		Sanitized: sanitized,
		Key:       key,
		Payload:   payload,
		Encrypted: opts.Passphrase != "",
	}, nil
}

// SeverFile severs the file at path. The sanitized document goes to outPath,
// or <stem>_redacted<ext> next to the source when outPath is empty, and the
// key to the sanitized path plus ".vecture". If the key cannot be written
// the sanitized file is removed again.
func (s *Service) SeverFile(ctx context.Context, path, outPath string, opts SeverOptions) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	res, err := s.sever(ctx, string(data), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if outPath == "" {
		outPath = SanitizedPath(path)
	}
	keyPath := outPath + KeySuffix
	if err := os.WriteFile(outPath, []byte(res.Sanitized), 0o644); err != nil {
		return nil, fmt.Errorf("write sanitized file: %w", err)
	}
	if err := os.WriteFile(keyPath, res.Key, 0o600); err != nil {
		if rmErr := os.Remove(outPath); rmErr != nil {
			slog.Warn("failed to remove sanitized file after key write failure", "path", outPath, "err", rmErr)
		}
		return nil, fmt.Errorf("write key file: %w", err)
	}

	if !opts.NoLedger {
		s.record(res, absPath(path), absPath(outPath), absPath(keyPath))
	}

	cats := make(map[string]int)
	for c, n := range res.Payload.CategoryCounts() {
		cats[string(c)] = n
	}
	return &FileResult{
		SourcePath:    path,
		SanitizedPath: outPath,
		KeyPath:       keyPath,
		KeyID:         res.Payload.KeyID,
		Records:       len(res.Payload.Records),
		Categories:    cats,
		Encrypted:     res.Encrypted,
	}, nil
}

// SeverBatch severs several files concurrently, at most limit at a time
// (limit <= 0 means unbounded). Results are returned in input order. The
// first failure cancels the remaining work; files already written stay.
func (s *Service) SeverBatch(ctx context.Context, paths []string, opts SeverOptions, limit int) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.SeverFile(gctx, p, "", opts)
			if err != nil {
				return err
			}
			results[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// record stores a ledger entry. Failures are logged and never fail the sever.
func (s *Service) record(res *SeverResult, source, sanitized, key string) {
	if s.ledger == nil {
		return
	}
	_, err := s.ledger.InsertSeverance(&models.Severance{
		KeyID:         res.Payload.KeyID,
		Digest:        res.Payload.Digest,
		Style:         res.Payload.Style,
		SourcePath:    source,
		SanitizedPath: sanitized,
		KeyPath:       key,
		Records:       len(res.Payload.Records),
		Categories:    res.Payload.CategoryCounts(),
		Encrypted:     res.Encrypted,
		CreatedAt:     res.Payload.CreatedAt,
	})
	if err != nil {
		slog.Warn("ledger: record severance", "key_id", res.Payload.KeyID, "err", err)
	}
}

// ---------------------------------------------------------------------------
// File naming
// ---------------------------------------------------------------------------

// SanitizedPath returns <stem>_redacted<ext> beside path.
func SanitizedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_redacted" + ext
}

// RestoredPath returns the default output for restoring path: "_redacted" in
// the stem becomes "_restored", otherwise "_restored" is appended to the stem.
func RestoredPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if strings.Contains(stem, "_redacted") {
		stem = strings.ReplaceAll(stem, "_redacted", "_restored")
	} else {
		stem += "_restored"
	}
	return filepath.Join(dir, stem+ext)
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}
