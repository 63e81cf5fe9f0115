// Package restorecmd implements the `vecture restore` command.
package restorecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/vecture/cmd/vecture/shared"
)

// Command implements `vecture restore`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	passphraseFile string
	output         string
}

// New creates the restore command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "restore <sanitized> [key]",
		Short: "Rebuild the original file from a sanitized file and its key",
		Long: `Restore verifies that the sanitized file is byte-for-byte what the key was
issued for, then writes the original. Without a key argument the ledger is
searched for a key matching the file's digest.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.passphraseFile, "passphrase-file", "", "Read the passphrase from this file")
	f.StringVarP(&c.output, "output", "o", "", "Output path (default: <stem>_restored<ext>)")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	var keyPath string
	if len(args) == 2 {
		keyPath = args[1]
	}
	pass := shared.Passphrase(c.passphraseFile, cmd.ErrOrStderr())
	res, err := svc.RestoreFile(cmd.Context(), args[0], keyPath, c.output, pass)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n  key:    %s\n  output: %s\n", res.SanitizedPath, res.KeyPath, res.OutputPath)
	return nil
}
