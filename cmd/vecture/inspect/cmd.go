// Package inspectcmd implements the `vecture inspect` command.
package inspectcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/vecture/cmd/vecture/shared"
)

// Command implements `vecture inspect`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	passphraseFile string
}

// New creates the inspect command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "inspect <key>",
		Short: "Summarise a key without revealing original text",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.passphraseFile, "passphrase-file", "", "Read the passphrase from this file")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	key, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}

	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	sum, err := svc.Inspect(cmd.Context(), key, shared.Passphrase(c.passphraseFile, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(sum)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}
