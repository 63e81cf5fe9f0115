// Package mcp provides the stdio MCP server exposing sever, restore and
// inspect to coding agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/vecture/internal/buildinfo"
	"github.com/go-ports/vecture/internal/models"
	"github.com/go-ports/vecture/internal/render"
	"github.com/go-ports/vecture/internal/service"
)

var validStyles = []string{string(render.StyleClassic), string(render.StyleBlackout), string(render.StyleNoise)}

const severDescription = `Remove sensitive spans (IPv4 addresses, dates, email addresses, custom terms, optionally capitalized names) from a text before it is shared or sent anywhere. Returns the sanitized text and a key that restores it. Keep the key private; never paste it next to the sanitized text.` //nolint:lll

const restoreDescription = `Restore the original text from a sanitized text and its vecture key. Fails without output if the sanitized text was altered in any way.` //nolint:lll

const inspectDescription = `Describe a vecture key (id, style, digest, record counts per category) without revealing any original text.`

// NewServer creates and registers all vecture tools on a new MCP server.
// It is separate from Serve so tests can obtain a configured server without
// the stdio transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("vecture", buildinfo.Version)
	registerTools(s, svc)
	return s
}

// Serve starts the stdio MCP server rooted at home, blocking until stdin closes.
func Serve(_ context.Context, home string) error {
	svc, err := service.New(home)
	if err != nil {
		return fmt.Errorf("mcp: init service: %w", err)
	}
	defer svc.Close()

	return mcpserver.ServeStdio(NewServer(svc))
}

// registerTools wires the three MCP tools into the server.
func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("vecture_sever",
		mcp.WithDescription(severDescription),
		mcp.WithString("text",
			mcp.Description("The document to sanitize."),
			mcp.Required(),
		),
		mcp.WithString("style",
			mcp.Description("CLASSIC: fixed marker. BLACKOUT: block glyphs of equal length. NOISE: random alphanumerics of equal length."),
			mcp.Enum(validStyles...),
		),
		mcp.WithArray("classes",
			mcp.Description("Detection classes: ipv4, date, email, custom, capitalized. Defaults to the configured set."),
			mcp.WithStringItems(),
		),
		mcp.WithArray("terms",
			mcp.Description("Exact, case-sensitive terms to remove in addition to the classes."),
			mcp.WithStringItems(),
		),
		mcp.WithBoolean("capitals",
			mcp.Description("Also remove capitalized words that are not at a sentence start (likely names)."),
		),
		mcp.WithBoolean("secrets",
			mcp.Description("Also remove credentials: API keys, tokens, private keys, password values."),
		),
		mcp.WithString("passphrase",
			mcp.Description("Encrypt the key with this passphrase."),
		),
		mcp.WithBoolean("compact",
			mcp.Description("Return the key in the single-line VECTURE_KEY: form."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSever(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("vecture_restore",
		mcp.WithDescription(restoreDescription),
		mcp.WithString("sanitized",
			mcp.Description("The sanitized text exactly as produced by vecture_sever."),
			mcp.Required(),
		),
		mcp.WithString("key",
			mcp.Description("The key returned by vecture_sever."),
			mcp.Required(),
		),
		mcp.WithString("passphrase",
			mcp.Description("Passphrase if the key is encrypted."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRestore(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("vecture_inspect",
		mcp.WithDescription(inspectDescription),
		mcp.WithString("key",
			mcp.Description("The key to describe."),
			mcp.Required(),
		),
		mcp.WithString("passphrase",
			mcp.Description("Passphrase if the key is encrypted."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleInspect(ctx, svc, req)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleSever(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, err := severOptions(svc, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := svc.Sever(ctx, req.GetString("text", ""), opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"sanitized":  res.Sanitized,
		"key":        strings.TrimRight(string(res.Key), "\n"),
		"key_id":     res.Payload.KeyID,
		"records":    len(res.Payload.Records),
		"categories": categoryCounts(res.Payload),
		"encrypted":  res.Encrypted,
	})
}

func handleRestore(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	original, err := svc.Restore(ctx,
		req.GetString("sanitized", ""),
		[]byte(req.GetString("key", "")),
		service.StaticPassphrase(req.GetString("passphrase", "")),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"original": original})
}

func handleInspect(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := svc.Inspect(ctx,
		[]byte(req.GetString("key", "")),
		service.StaticPassphrase(req.GetString("passphrase", "")),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sum)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// severOptions overlays the request arguments on the configured defaults.
func severOptions(svc *service.Service, req mcp.CallToolRequest) (service.SeverOptions, error) {
	opts, err := svc.DefaultSeverOptions()
	if err != nil {
		return opts, err
	}
	if v := req.GetString("style", ""); v != "" {
		if opts.Style, err = render.ParseStyle(v); err != nil {
			return opts, err
		}
	}
	if v := req.GetStringSlice("classes", nil); v != nil {
		if opts.Classes, err = models.ParseCategories(v); err != nil {
			return opts, err
		}
	}
	if v := req.GetStringSlice("terms", nil); len(v) > 0 {
		opts.Terms = append(append([]string(nil), opts.Terms...), v...)
	}
	opts.Capitals = req.GetBool("capitals", false)
	opts.Secrets = req.GetBool("secrets", opts.Secrets)
	opts.Passphrase = req.GetString("passphrase", "")
	opts.Compact = req.GetBool("compact", opts.Compact)
	return opts, nil
}

func categoryCounts(p *models.KeyPayload) map[string]int {
	out := make(map[string]int)
	for c, n := range p.CategoryCounts() {
		out[string(c)] = n
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
