// Package uninstallcmd implements the `vecture uninstall` command group.
package uninstallcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/vecture/cmd/vecture/shared"
	"github.com/go-ports/vecture/internal/setup"
)

// Command implements `vecture uninstall`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the uninstall command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the vecture MCP server from a coding agent",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	for _, name := range setup.Agents() {
		c.cmd.AddCommand(newAgent(name))
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func newAgent(name string) *cobra.Command {
	var opts setup.Options
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Remove vecture from %s", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := setup.Uninstall(name, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.AgentHome, "agent-home", "", "Path to the agent's config directory")
	cmd.Flags().BoolVar(&opts.Project, "project", false, "Uninstall from current project instead of globally")
	return cmd
}
