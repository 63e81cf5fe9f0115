// Package initcmd implements the `vecture init` command.
package initcmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/go-ports/vecture/cmd/vecture/shared"
)

// Command implements `vecture init`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the init command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "init",
		Short: "Create the vecture home, its ledger and an empty terms file",
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := c.ctx.Service()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	terms := svc.Config.TermsPath(svc.Home)
	if _, err := os.Stat(terms); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(terms), 0o700); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		if err := os.WriteFile(terms, nil, 0o600); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		fmt.Fprintf(out, "Created empty terms file %s\n", terms)
	}
	fmt.Fprintf(out, "Vecture home initialized at %s\n", svc.Home)
	if !svc.LedgerEnabled() {
		fmt.Fprintln(out, "Ledger is disabled (ledger.enabled: false).")
	}
	return nil
}
