// Package setup registers and unregisters the vecture MCP server with
// supported coding agents (Claude Code, Cursor, OpenCode).
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// serverName is the key the MCP server is registered under.
const serverName = "vecture"

// ErrUnknownAgent is returned for an agent name outside Agents().
var ErrUnknownAgent = errors.New("unknown agent")

// Result is the return value from Setup and Uninstall.
type Result struct {
	Status  string // always "ok"
	Message string
}

func ok(msg string) Result          { return Result{Status: "ok", Message: msg} }
func okf(f string, a ...any) Result { return ok(fmt.Sprintf(f, a...)) }

// Options locate the agent configuration and shape the registered command.
type Options struct {
	// AgentHome overrides the agent's config directory (~/.claude, ~/.cursor).
	AgentHome string
	// Project writes the project-scoped config in the working directory
	// instead of the user-wide one, where the agent supports it.
	Project bool
	// VectureHome, when set, is passed to the server as --home.
	VectureHome string
}

// ---------------------------------------------------------------------------
// Targets
// ---------------------------------------------------------------------------

// target is one JSON config file and the object inside it that holds MCP
// server entries.
type target struct {
	path  string
	key   string
	entry map[string]any
	label string
}

type agent struct {
	resolve func(Options) target
}

var agents = map[string]agent{
	"claude-code": {resolve: claudeTarget},
	"cursor":      {resolve: cursorTarget},
	"opencode":    {resolve: opencodeTarget},
}

// Agents lists the supported agent names.
func Agents() []string {
	names := make([]string, 0, len(agents))
	for n := range agents {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func serverArgs(o Options) []any {
	args := []any{"mcp"}
	if o.VectureHome != "" {
		args = append(args, "--home", o.VectureHome)
	}
	return args
}

func userHome() string {
	home, _ := os.UserHomeDir()
	return home
}

func claudeTarget(o Options) target {
	entry := map[string]any{"type": "stdio", "command": "vecture", "args": serverArgs(o)}
	if o.Project {
		cwd, _ := os.Getwd()
		return target{path: filepath.Join(cwd, ".mcp.json"), key: "mcpServers", entry: entry, label: ".mcp.json"}
	}
	path := filepath.Join(userHome(), ".claude.json")
	if o.AgentHome != "" {
		// ~/.claude.json sits beside ~/.claude.
		path = filepath.Join(filepath.Dir(o.AgentHome), ".claude.json")
	}
	return target{path: path, key: "mcpServers", entry: entry, label: "~/.claude.json"}
}

func cursorTarget(o Options) target {
	entry := map[string]any{"type": "stdio", "command": "vecture", "args": serverArgs(o)}
	if o.Project {
		cwd, _ := os.Getwd()
		return target{path: filepath.Join(cwd, ".cursor", "mcp.json"), key: "mcpServers", entry: entry, label: ".cursor/mcp.json"}
	}
	home := o.AgentHome
	if home == "" {
		home = filepath.Join(userHome(), ".cursor")
	}
	return target{path: filepath.Join(home, "mcp.json"), key: "mcpServers", entry: entry, label: "~/.cursor/mcp.json"}
}

func opencodeTarget(o Options) target {
	entry := map[string]any{"type": "local", "command": append([]any{"vecture"}, serverArgs(o)...)}
	if o.Project {
		cwd, _ := os.Getwd()
		return target{path: filepath.Join(cwd, "opencode.json"), key: "mcp", entry: entry, label: "opencode.json"}
	}
	home := o.AgentHome
	if home == "" {
		home = filepath.Join(userHome(), ".config", "opencode")
	}
	return target{path: filepath.Join(home, "opencode.json"), key: "mcp", entry: entry, label: "~/.config/opencode/opencode.json"}
}

// ---------------------------------------------------------------------------
// Setup / Uninstall
// ---------------------------------------------------------------------------

// Setup registers the vecture MCP server with the named agent. An existing
// registration is left untouched.
func Setup(name string, o Options) (Result, error) {
	a, found := agents[name]
	if !found {
		return Result{}, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownAgent, name, Agents())
	}
	t := a.resolve(o)

	data, err := readJSON(t.path)
	if err != nil {
		return Result{}, err
	}
	servers, _ := data[t.key].(map[string]any)
	if servers == nil {
		servers = make(map[string]any)
		data[t.key] = servers
	}
	if _, exists := servers[serverName]; exists {
		return ok("Already installed"), nil
	}
	servers[serverName] = t.entry
	if err := writeJSON(t.path, data); err != nil {
		return Result{}, err
	}
	return okf("Installed: %s in %s", t.key, t.label), nil
}

// Uninstall removes the vecture MCP server from the named agent. A config
// file left empty is deleted.
func Uninstall(name string, o Options) (Result, error) {
	a, found := agents[name]
	if !found {
		return Result{}, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownAgent, name, Agents())
	}
	t := a.resolve(o)

	if _, err := os.Stat(t.path); os.IsNotExist(err) {
		return ok("Nothing to remove"), nil
	}
	data, err := readJSON(t.path)
	if err != nil {
		return Result{}, err
	}
	servers, _ := data[t.key].(map[string]any)
	if _, exists := servers[serverName]; !exists {
		return ok("Nothing to remove"), nil
	}
	delete(servers, serverName)
	if len(servers) == 0 {
		delete(data, t.key)
	}
	if len(data) == 0 {
		if err := os.Remove(t.path); err != nil {
			return Result{}, err
		}
	} else if err := writeJSON(t.path, data); err != nil {
		return Result{}, err
	}
	return okf("Removed: %s from %s", t.key, t.label), nil
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

// readJSON returns the object stored at path, or an empty one when the file
// does not exist. A file that exists but is not a JSON object is an error so
// that a hand-edited config is never overwritten.
func readJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: not a JSON object: %w", path, err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

func writeJSON(path string, data map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644) // #nosec G306 -- agent MCP config carries no secrets
}
