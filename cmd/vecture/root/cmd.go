// Package rootcmd wires the root cobra.Command for the vecture CLI binary.
package rootcmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	configcmd "github.com/go-ports/vecture/cmd/vecture/config"
	initcmd "github.com/go-ports/vecture/cmd/vecture/init"
	inspectcmd "github.com/go-ports/vecture/cmd/vecture/inspect"
	ledgercmd "github.com/go-ports/vecture/cmd/vecture/ledger"
	mcpcmd "github.com/go-ports/vecture/cmd/vecture/mcp"
	restorecmd "github.com/go-ports/vecture/cmd/vecture/restore"
	setupcmd "github.com/go-ports/vecture/cmd/vecture/setup"
	severcmd "github.com/go-ports/vecture/cmd/vecture/sever"
	"github.com/go-ports/vecture/cmd/vecture/shared"
	uninstallcmd "github.com/go-ports/vecture/cmd/vecture/uninstall"
	verifycmd "github.com/go-ports/vecture/cmd/vecture/verify"
	"github.com/go-ports/vecture/internal/buildinfo"
)

// New creates and returns the root cobra.Command for the vecture CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "vecture",
		Short:         "Vecture: reversible redaction of sensitive text",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if ctx.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVar(
		&ctx.Home, "home", "",
		"Override vecture home directory (default: $VECTURE_HOME env → persisted config → ~/.vecture)",
	)
	root.PersistentFlags().BoolVarP(&ctx.Verbose, "verbose", "v", false, "Enable debug logging on stderr")

	root.AddCommand(
		initcmd.New(ctx).Cmd(),
		severcmd.New(ctx).Cmd(),
		restorecmd.New(ctx).Cmd(),
		inspectcmd.New(ctx).Cmd(),
		verifycmd.New(ctx).Cmd(),
		ledgercmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		setupcmd.New(ctx).Cmd(),
		uninstallcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
	)

	return root
}
