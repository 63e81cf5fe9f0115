// Package service implements the Service orchestrator that wires together
// configuration, the displacement engine, the key codec and the ledger.
package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ports/vecture/internal/config"
	"github.com/go-ports/vecture/internal/db"
	"github.com/go-ports/vecture/internal/keycodec"
	"github.com/go-ports/vecture/internal/locate"
	"github.com/go-ports/vecture/internal/models"
	"github.com/go-ports/vecture/internal/render"
)

var (
	// ErrLedgerDisabled is returned by ledger operations when ledger.enabled is false.
	ErrLedgerDisabled = errors.New("ledger is disabled")
	// ErrKeyNotFound is returned when no key for a sanitized document can be located.
	ErrKeyNotFound = errors.New("no key found for document")
)

// Service orchestrates sever and restore operations.
type Service struct {
	Home   string
	Config *config.VectureConfig

	ledger *db.DB
}

// New initialises a Service rooted at home.
// If home is empty it is resolved via config.GetHome.
func New(home string) (*Service, error) {
	if home == "" {
		home = config.GetHome()
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return nil, fmt.Errorf("service.New: create home: %w", err)
	}

	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("service.New: load config: %w", err)
	}

	s := &Service{Home: home, Config: cfg}
	if cfg.Ledger.Enabled {
		ledger, err := db.Open(filepath.Join(home, "ledger.db"))
		if err != nil {
			return nil, fmt.Errorf("service.New: open ledger: %w", err)
		}
		s.ledger = ledger
	}
	return s, nil
}

// Close releases all resources held by the service.
func (s *Service) Close() error {
	if s.ledger == nil {
		return nil
	}
	return s.ledger.Close()
}

// LedgerEnabled reports whether sever operations are being recorded.
func (s *Service) LedgerEnabled() bool { return s.ledger != nil }

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// SeverOptions control one sever operation.
type SeverOptions struct {
	Style   render.Style
	Classes []models.Category
	// Capitals adds the capitalized-word heuristic to Classes.
	Capitals bool
	Terms    []string
	Marker   string

	// Secrets adds the credential detector, extended by Patterns.
	Secrets  bool
	Patterns []string

	// Passphrase seals the key when non-empty.
	Passphrase string
	Compact    bool

	// NoLedger skips the ledger entry for this operation.
	NoLedger bool
}

// DefaultSeverOptions returns options populated from the configuration,
// including the terms and patterns files. An unreadable file, or an
// explicitly configured one that does not exist, is ErrInvalidPattern.
func (s *Service) DefaultSeverOptions() (SeverOptions, error) {
	style, err := render.ParseStyle(s.Config.Sever.Style)
	if err != nil {
		return SeverOptions{}, fmt.Errorf("config sever.style: %w", err)
	}
	classes, err := models.ParseCategories(s.Config.Sever.Classes)
	if err != nil {
		return SeverOptions{}, fmt.Errorf("config sever.classes: %w", err)
	}
	terms, err := loadListFile("terms", s.Config.TermsPath(s.Home),
		s.Config.Sever.TermsFile != config.DefaultTermsFile, locate.LoadTerms)
	if err != nil {
		return SeverOptions{}, err
	}
	patterns, err := loadListFile("patterns", s.Config.PatternsPath(s.Home),
		s.Config.Sever.PatternsFile != config.DefaultPatternsFile, locate.LoadPatterns)
	if err != nil {
		return SeverOptions{}, err
	}
	return SeverOptions{
		Style:    style,
		Classes:  classes,
		Terms:    terms,
		Marker:   s.Config.Sever.Marker,
		Secrets:  s.Config.Sever.Secrets,
		Patterns: patterns,
		Compact:  s.Config.Key.Compact,
	}, nil
}

// LoadTermsFile reads a terms file named explicitly, e.g. on the command
// line. Any failure, including a missing file, is ErrInvalidPattern.
func LoadTermsFile(path string) ([]string, error) {
	return loadListFile("terms", path, true, locate.LoadTerms)
}

// loadListFile reads a terms or patterns file. Only an absent file at the
// default location is treated as empty.
func loadListFile(what, path string, explicit bool, load func(string) ([]string, error)) ([]string, error) {
	if explicit {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s file %s: %v", models.ErrInvalidPattern, what, path, err)
		}
	}
	list, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s file %s: %v", models.ErrInvalidPattern, what, path, err)
	}
	return list, nil
}

func (o SeverOptions) locator() (*locate.Locator, error) {
	classes := o.Classes
	if o.Capitals {
		classes = append(append([]models.Category(nil), classes...), models.CategoryCapitalized)
	}
	l, err := locate.Build(locate.Options{Classes: classes, Terms: o.Terms})
	if err != nil || !o.Secrets {
		return l, err
	}
	secrets, err := locate.NewSecretDetector(o.Patterns...)
	if err != nil {
		return nil, err
	}
	return l.With(secrets), nil
}

func (o SeverOptions) renderer() (*render.Renderer, error) {
	var opts []render.Option
	if o.Marker != "" {
		opts = append(opts, render.WithMarker(o.Marker))
	}
	return render.New(o.Style, opts...)
}

func (s *Service) keyOptions(o SeverOptions) keycodec.Options {
	return keycodec.Options{
		Passphrase: o.Passphrase,
		Compact:    o.Compact,
		KDF: keycodec.KDFParams{
			Time:      s.Config.Key.KDF.Time,
			MemoryKiB: s.Config.Key.KDF.MemoryKiB,
			Threads:   s.Config.Key.KDF.Threads,
		},
	}
}

// Passphrase supplies the passphrase for a sealed key. It is only called
// when the key turns out to be encrypted.
type Passphrase func() (string, error)

// StaticPassphrase returns a Passphrase that always yields p.
func StaticPassphrase(p string) Passphrase {
	return func() (string, error) { return p, nil }
}
