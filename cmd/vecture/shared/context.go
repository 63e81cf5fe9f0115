// Package shared holds the context passed to all CLI commands.
package shared

import (
	"errors"

	"github.com/go-ports/vecture/internal/config"
	"github.com/go-ports/vecture/internal/models"
	"github.com/go-ports/vecture/internal/service"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// Home overrides the vecture home directory.
	// When empty, resolution falls through to VECTURE_HOME → persisted config → ~/.vecture.
	Home    string
	Verbose bool
}

// ResolvedHome returns the --home flag or the configured home.
func (c *Context) ResolvedHome() string {
	if c.Home != "" {
		return c.Home
	}
	return config.GetHome()
}

// Service opens the service for the resolved home. Callers must Close it.
func (c *Context) Service() (*service.Service, error) {
	return service.New(c.ResolvedHome())
}

// Exit codes returned by the vecture binary.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitIntegrity   = 2
	ExitDecryption  = 3
	ExitUnsupported = 4
	ExitMismatch    = 5
	ExitInvalid     = 6
)

// ExitCode maps err onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, models.ErrIntegrity):
		return ExitIntegrity
	case errors.Is(err, models.ErrDecryption):
		return ExitDecryption
	case errors.Is(err, models.ErrUnsupportedFormat):
		return ExitUnsupported
	case errors.Is(err, models.ErrRecordMismatch):
		return ExitMismatch
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidPattern):
		return ExitInvalid
	default:
		return ExitError
	}
}
