// Package configcmd implements the `vecture config` command group.
package configcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/vecture/cmd/vecture/shared"
	"github.com/go-ports/vecture/internal/config"
)

const configTemplate = `# Vecture configuration

sever:
  style: CLASSIC                # CLASSIC | BLACKOUT | NOISE
  classes: [ipv4, date, email]  # add custom, capitalized as needed
  marker: "[REDACTED]"          # CLASSIC replacement text
  terms_file: terms.txt         # one custom term per line, relative to this home
  secrets: false                # also redact API keys, tokens, password values
  patterns_file: patterns.txt   # extra credential regexps, one per line

key:
  compact: false                # single-line VECTURE_KEY: form
  kdf:                          # Argon2id cost for --encrypt
    time: 3
    memory_kib: 65536
    threads: 4

# Record sever operations (ids, digests, paths; never original text).
ledger:
  enabled: true
`

// Command implements `vecture config`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the config command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE:  c.runShow,
	}
	c.cmd.AddCommand(
		newConfigInit(ctx),
		newSetHome(),
		newClearHome(),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	home, source := config.ResolveHome()
	if c.ctx.Home != "" {
		home, source = c.ctx.Home, "flag"
	}
	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return err
	}
	data := map[string]any{
		"sever":        cfg.Sever,
		"key":          cfg.Key,
		"ledger":       cfg.Ledger,
		"vecture_home": home,
		"home_source":  source,
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}

// ---------------------------------------------------------------------------
// config init
// ---------------------------------------------------------------------------

func newConfigInit(ctx *shared.Context) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter config.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			home := ctx.ResolvedHome()
			cfgPath := filepath.Join(home, "config.yaml")
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				fmt.Fprintf(out, "Config already exists at %s\n", cfgPath)
				fmt.Fprintln(out, "Use --force to overwrite.")
				return nil
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, []byte(configTemplate), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s\n", cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}

// ---------------------------------------------------------------------------
// config set-home / clear-home
// ---------------------------------------------------------------------------

func newSetHome() *cobra.Command {
	return &cobra.Command{
		Use:   "set-home <path>",
		Short: "Persist the vecture home location (used when VECTURE_HOME is unset)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := config.SetPersistedHome(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(resolved, 0o700); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Persisted vecture home: %s\n", resolved)
			fmt.Fprintln(out, "Override anytime with VECTURE_HOME or --home.")
			return nil
		},
	}
}

func newClearHome() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-home",
		Short: "Remove the persisted vecture home location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			changed, err := config.ClearPersistedHome()
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared persisted vecture home setting.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No persisted vecture home setting was found.")
			}
			return nil
		},
	}
}
