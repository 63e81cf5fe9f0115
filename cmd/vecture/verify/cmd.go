// Package verifycmd implements the `vecture verify` command.
package verifycmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-ports/vecture/cmd/vecture/shared"
)

// Command implements `vecture verify`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	passphraseFile string
}

// New creates the verify command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "verify <sanitized> <key>",
		Short: "Check that a sanitized file is unaltered relative to its key",
		Args:  cobra.ExactArgs(2),
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.passphraseFile, "passphrase-file", "", "Read the passphrase from this file")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	sanitized, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read sanitized file: %w", err)
	}
	key, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}

	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	p, err := svc.Verify(cmd.Context(), string(sanitized), key, shared.Passphrase(c.passphraseFile, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK %s matches key %s (%d records)\n", args[0], p.KeyID, len(p.Records))
	return nil
}
