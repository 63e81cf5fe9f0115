package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-ports/vecture/internal/keycodec"
	"github.com/go-ports/vecture/internal/models"
	"github.com/go-ports/vecture/internal/reintegrate"
)

// RestoreResult describes a restored file.
type RestoreResult struct {
	SanitizedPath string `json:"sanitized_path"`
	KeyPath       string `json:"key_path"`
	OutputPath    string `json:"output_path"`
	KeyID         string `json:"key_id"`
}

// OpenKey parses a key file, asking pass for a passphrase only when the key
// is sealed. It returns the payload and whether the key was encrypted.
func OpenKey(ctx context.Context, key []byte, pass Passphrase) (*models.KeyPayload, bool, error) {
	encrypted, err := keycodec.IsEncrypted(key)
	if err != nil {
		return nil, false, err
	}
	var passphrase string
	if encrypted && pass != nil {
		if passphrase, err = pass(); err != nil {
			return nil, true, fmt.Errorf("%w: %v", models.ErrDecryption, err)
		}
	}
	p, err := keycodec.Unmarshal(ctx, key, passphrase)
	return p, encrypted, err
}

// Restore reconstructs the original text from sanitized and its key.
func (s *Service) Restore(ctx context.Context, sanitized string, key []byte, pass Passphrase) (string, error) {
	p, _, err := OpenKey(ctx, key, pass)
	if err != nil {
		return "", err
	}
	return reintegrate.Restore(sanitized, p)
}

// RestoreFile restores the sanitized file at path. An empty keyPath is looked
// up in the ledger by the document's digest; an empty outPath defaults to
// RestoredPath(path). Nothing is written unless restoration succeeds.
func (s *Service) RestoreFile(ctx context.Context, path, keyPath, outPath string, pass Passphrase) (*RestoreResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sanitized file: %w", err)
	}
	sanitized := string(data)

	if keyPath == "" {
		if keyPath, err = s.LocateKey(sanitized); err != nil {
			return nil, err
		}
		slog.Debug("key located through ledger", "path", keyPath)
	}
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	p, _, err := OpenKey(ctx, key, pass)
	if err != nil {
		return nil, err
	}
	original, err := reintegrate.Restore(sanitized, p)
	if err != nil {
		return nil, err
	}

	if outPath == "" {
		outPath = RestoredPath(path)
	}
	if err := os.WriteFile(outPath, []byte(original), 0o600); err != nil {
		return nil, fmt.Errorf("write restored file: %w", err)
	}
	return &RestoreResult{
		SanitizedPath: path,
		KeyPath:       keyPath,
		OutputPath:    outPath,
		KeyID:         p.KeyID,
	}, nil
}

// Verify checks that sanitized is byte-identical to the document the key was
// made for, without replaying any record.
func (s *Service) Verify(ctx context.Context, sanitized string, key []byte, pass Passphrase) (*models.KeyPayload, error) {
	p, _, err := OpenKey(ctx, key, pass)
	if err != nil {
		return nil, err
	}
	if err := reintegrate.Verify(sanitized, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Inspect summarises a key without revealing original text.
func (s *Service) Inspect(ctx context.Context, key []byte, pass Passphrase) (*keycodec.Summary, error) {
	p, encrypted, err := OpenKey(ctx, key, pass)
	if err != nil {
		return nil, err
	}
	sum := keycodec.Inspect(p)
	sum.Encrypted = encrypted
	return &sum, nil
}

// ---------------------------------------------------------------------------
// Ledger
// ---------------------------------------------------------------------------

// LocateKey finds the key file recorded for a sanitized document. The newest
// ledger entry whose key file still exists wins.
func (s *Service) LocateKey(sanitized string) (string, error) {
	if s.ledger == nil {
		return "", fmt.Errorf("%w: pass the key file explicitly", ErrLedgerDisabled)
	}
	digest := models.DigestOf(sanitized)
	entries, err := s.ledger.FindByDigest(digest)
	if err != nil {
		return "", fmt.Errorf("ledger lookup: %w", err)
	}
	for _, e := range entries {
		if e.KeyPath == "" {
			continue
		}
		if _, err := os.Stat(e.KeyPath); err == nil {
			return e.KeyPath, nil
		}
	}
	return "", fmt.Errorf("%w: digest %s", ErrKeyNotFound, digest[:12])
}

// ListSeverances returns ledger entries, newest first.
func (s *Service) ListSeverances(limit int, style string) ([]models.Severance, error) {
	if s.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	return s.ledger.ListSeverances(limit, style)
}

// GetSeverance returns the ledger entry for a key id or unique prefix.
func (s *Service) GetSeverance(id string) (*models.Severance, bool, error) {
	if s.ledger == nil {
		return nil, false, ErrLedgerDisabled
	}
	return s.ledger.GetSeverance(id)
}

// ForgetSeverance removes one ledger entry. Key files are left alone.
func (s *Service) ForgetSeverance(id string) (bool, error) {
	if s.ledger == nil {
		return false, ErrLedgerDisabled
	}
	return s.ledger.DeleteSeverance(id)
}

// ForgetBefore removes every ledger entry older than before.
func (s *Service) ForgetBefore(before time.Time) (int, error) {
	if s.ledger == nil {
		return 0, ErrLedgerDisabled
	}
	return s.ledger.DeleteBefore(before)
}
