// Package severcmd implements the `vecture sever` command.
package severcmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/vecture/cmd/vecture/shared"
	"github.com/go-ports/vecture/internal/models"
	"github.com/go-ports/vecture/internal/render"
	"github.com/go-ports/vecture/internal/service"
)

// Command implements `vecture sever`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	style          string
	classes        []string
	capitals       bool
	secrets        bool
	terms          string
	encrypt        bool
	passphraseFile string
	compact        bool
	output         string
	noLedger       bool
	jobs           int
}

// New creates the sever command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "sever <file>...",
		Short: "Redact sensitive spans and write the sanitized file plus its key",
		Long: `Sever writes <stem>_redacted<ext> next to each input file and the key that
restores it to <stem>_redacted<ext>.vecture. Keep the key away from the
sanitized file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.style, "style", "", "Rendering style: CLASSIC, BLACKOUT or NOISE (default from config)")
	f.StringSliceVar(&c.classes, "classes", nil, "Detection classes: ipv4,date,email,custom,capitalized (default from config)")
	f.BoolVar(&c.capitals, "capitals", false, "Also redact capitalized words (name heuristic)")
	f.BoolVar(&c.secrets, "secrets", false, "Also redact credentials (API keys, tokens, private keys, password values)")
	f.StringVar(&c.terms, "terms", "", "File of custom terms, one per line, added to the configured terms")
	f.BoolVar(&c.encrypt, "encrypt", false, "Seal the key with a passphrase")
	f.StringVar(&c.passphraseFile, "passphrase-file", "", "Read the passphrase from this file (implies --encrypt)")
	f.BoolVar(&c.compact, "compact", false, "Write the key in compact single-line form")
	f.StringVarP(&c.output, "output", "o", "", "Sanitized output path (single input only)")
	f.BoolVar(&c.noLedger, "no-ledger", false, "Do not record this operation in the ledger")
	f.IntVar(&c.jobs, "jobs", 4, "Files severed concurrently")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	if c.output != "" && len(args) > 1 {
		return fmt.Errorf("%w: --output requires exactly one input file", models.ErrInvalidInput)
	}

	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	opts, err := c.options(cmd, svc)
	if err != nil {
		return err
	}

	var results []service.FileResult
	if len(args) == 1 {
		r, err := svc.SeverFile(cmd.Context(), args[0], c.output, opts)
		if err != nil {
			return err
		}
		results = []service.FileResult{*r}
	} else {
		if results, err = svc.SeverBatch(cmd.Context(), args, opts, c.jobs); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "Severed %s (%d spans%s)\n", r.SourcePath, r.Records, describe(r.Categories))
		fmt.Fprintf(out, "  sanitized: %s\n", r.SanitizedPath)
		fmt.Fprintf(out, "  key:       %s", r.KeyPath)
		if r.Encrypted {
			fmt.Fprint(out, " (encrypted)")
		}
		fmt.Fprintln(out)
	}
	return nil
}

// options layers the command-line flags over the configured defaults.
func (c *Command) options(cmd *cobra.Command, svc *service.Service) (service.SeverOptions, error) {
	opts, err := svc.DefaultSeverOptions()
	if err != nil {
		return opts, err
	}
	flags := cmd.Flags()

	if flags.Changed("style") {
		if opts.Style, err = render.ParseStyle(c.style); err != nil {
			return opts, err
		}
	}
	if flags.Changed("classes") {
		if opts.Classes, err = models.ParseCategories(c.classes); err != nil {
			return opts, err
		}
	}
	if c.terms != "" {
		extra, err := service.LoadTermsFile(c.terms)
		if err != nil {
			return opts, err
		}
		opts.Terms = append(opts.Terms, extra...)
	}
	if flags.Changed("compact") {
		opts.Compact = c.compact
	}
	if flags.Changed("secrets") {
		opts.Secrets = c.secrets
	}
	opts.Capitals = c.capitals
	opts.NoLedger = c.noLedger

	if c.encrypt || c.passphraseFile != "" {
		if opts.Passphrase, err = shared.NewPassphrase(c.passphraseFile, cmd.ErrOrStderr()); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func describe(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%d", n, counts[n])
	}
	return ": " + strings.Join(parts, " ")
}
