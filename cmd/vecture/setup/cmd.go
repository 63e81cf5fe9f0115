// Package setupcmd implements the `vecture setup` command group.
package setupcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/vecture/cmd/vecture/shared"
	"github.com/go-ports/vecture/internal/setup"
)

// Command implements `vecture setup`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the setup command group with one subcommand per agent.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "setup",
		Short: "Register the vecture MCP server with a coding agent",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	for _, name := range setup.Agents() {
		c.cmd.AddCommand(newAgent(ctx, name))
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func newAgent(ctx *shared.Context, name string) *cobra.Command {
	var opts setup.Options
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Install the vecture MCP server into %s", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.VectureHome = ctx.Home
			result, err := setup.Setup(name, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.AgentHome, "agent-home", "", "Path to the agent's config directory")
	cmd.Flags().BoolVar(&opts.Project, "project", false, "Install in current project instead of globally")
	return cmd
}
