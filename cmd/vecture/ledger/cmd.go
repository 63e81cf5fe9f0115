// Package ledgercmd implements the `vecture ledger` command group.
package ledgercmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/vecture/cmd/vecture/shared"
	"github.com/go-ports/vecture/internal/models"
)

// Command implements `vecture ledger`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the ledger command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "ledger",
		Short: "List or prune recorded sever operations",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	c.cmd.AddCommand(
		newList(ctx),
		newShow(ctx),
		newForget(ctx),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

// ---------------------------------------------------------------------------
// ledger list
// ---------------------------------------------------------------------------

func newList(ctx *shared.Context) *cobra.Command {
	var limit int
	var style string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sever operations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := ctx.Service()
			if err != nil {
				return err
			}
			defer svc.Close()

			entries, err := svc.ListSeverances(limit, style)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No severances recorded.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "  %s | %s | %-8s | %3d records | %s\n",
					shortID(e.KeyID), e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Style, e.Records, source(e))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show")
	cmd.Flags().StringVar(&style, "style", "", "Only show entries rendered with this style")
	return cmd
}

// ---------------------------------------------------------------------------
// ledger show
// ---------------------------------------------------------------------------

func newShow(ctx *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ledger entry by key id or prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.Service()
			if err != nil {
				return err
			}
			defer svc.Close()

			e, found, err := svc.GetSeverance(args[0])
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(cmd.OutOrStdout(), "No ledger entry for %s\n", args[0])
				return nil
			}
			b, err := yaml.Marshal(e)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// ledger forget
// ---------------------------------------------------------------------------

func newForget(ctx *shared.Context) *cobra.Command {
	var before string
	cmd := &cobra.Command{
		Use:   "forget [<id>]",
		Short: "Remove ledger entries (key files are left in place)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (before != "") {
				return fmt.Errorf("%w: give either an id or --before", models.ErrInvalidInput)
			}
			svc, err := ctx.Service()
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			if before != "" {
				t, err := parseBefore(before)
				if err != nil {
					return err
				}
				n, err := svc.ForgetBefore(t)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Forgot %d ledger entries created before %s\n", n, t.Format(time.RFC3339))
				return nil
			}

			deleted, err := svc.ForgetSeverance(args[0])
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintf(out, "Forgot ledger entry %s\n", args[0])
			} else {
				fmt.Fprintf(out, "No ledger entry for %s\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Forget every entry older than this date (YYYY-MM-DD or RFC 3339)")
	return cmd
}

// parseBefore accepts a calendar date (local midnight) or an RFC 3339 time.
func parseBefore(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad --before %q", models.ErrInvalidInput, s)
	}
	return t, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func source(e models.Severance) string {
	if e.SourcePath == "" {
		return "(text)"
	}
	return e.SourcePath
}
