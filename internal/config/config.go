// Package config handles configuration loading and vecture home resolution.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// SeverConfig holds the defaults applied by `vecture sever`.
type SeverConfig struct {
	Style     string   `yaml:"style"`      // "CLASSIC" | "BLACKOUT" | "NOISE"
	Classes   []string `yaml:"classes"`    // ipv4, date, email, custom, capitalized
	Marker    string   `yaml:"marker"`     // CLASSIC replacement text
	TermsFile string   `yaml:"terms_file"` // relative paths resolve against the home

	// Secrets enables the credential detector; PatternsFile adds regular
	// expressions to it, one per line.
	Secrets      bool   `yaml:"secrets"`
	PatternsFile string `yaml:"patterns_file"`
}

// KDFConfig holds the Argon2id cost parameters for encrypted keys.
type KDFConfig struct {
	Time      uint32 `yaml:"time"`
	MemoryKiB uint32 `yaml:"memory_kib"`
	Threads   uint8  `yaml:"threads"`
}

// KeyConfig controls how key files are written.
type KeyConfig struct {
	Compact bool      `yaml:"compact"`
	KDF     KDFConfig `yaml:"kdf"`
}

// LedgerConfig toggles the local record of sever operations.
type LedgerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// VectureConfig is the root per-home configuration.
type VectureConfig struct {
	Sever  SeverConfig  `yaml:"sever"`
	Key    KeyConfig    `yaml:"key"`
	Ledger LedgerConfig `yaml:"ledger"`
}

// Default file names, relative to the vecture home. A missing file is only
// tolerated while the configuration still points at these.
const (
	DefaultTermsFile    = "terms.txt"
	DefaultPatternsFile = "patterns.txt"
)

// Default returns a VectureConfig populated with sensible defaults.
func Default() *VectureConfig {
	return &VectureConfig{
		Sever: SeverConfig{
			Style:        "CLASSIC",
			Classes:      []string{"ipv4", "date", "email"},
			Marker:       "[REDACTED]",
			TermsFile:    DefaultTermsFile,
			PatternsFile: DefaultPatternsFile,
		},
		Key: KeyConfig{
			KDF: KDFConfig{Time: 3, MemoryKiB: 64 * 1024, Threads: 4},
		},
		Ledger: LedgerConfig{Enabled: true},
	}
}

// TermsPath returns the terms file location, resolving a relative
// sever.terms_file against home. Empty means no terms file.
func (c *VectureConfig) TermsPath(home string) string {
	return homePath(home, c.Sever.TermsFile)
}

// PatternsPath is TermsPath for sever.patterns_file.
func (c *VectureConfig) PatternsPath(home string) string {
	return homePath(home, c.Sever.PatternsFile)
}

func homePath(home, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "~/") {
		if n, err := normalizePath(p); err == nil {
			return n
		}
		return p
	}
	return filepath.Join(home, p)
}

// Load reads a per-home config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*VectureConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if sever, ok := raw["sever"].(map[string]any); ok {
		if v, ok := sever["style"].(string); ok && v != "" {
			cfg.Sever.Style = v
		}
		if v, ok := stringList(sever["classes"]); ok {
			cfg.Sever.Classes = v
		}
		if v, ok := sever["marker"].(string); ok && v != "" {
			cfg.Sever.Marker = v
		}
		if v, ok := sever["terms_file"].(string); ok {
			cfg.Sever.TermsFile = v
		}
		if v, ok := sever["secrets"].(bool); ok {
			cfg.Sever.Secrets = v
		}
		if v, ok := sever["patterns_file"].(string); ok {
			cfg.Sever.PatternsFile = v
		}
	}

	if key, ok := raw["key"].(map[string]any); ok {
		if v, ok := key["compact"].(bool); ok {
			cfg.Key.Compact = v
		}
		if kdf, ok := key["kdf"].(map[string]any); ok {
			if v, ok := kdf["time"].(int); ok && v > 0 {
				cfg.Key.KDF.Time = uint32(v)
			}
			if v, ok := kdf["memory_kib"].(int); ok && v > 0 {
				cfg.Key.KDF.MemoryKiB = uint32(v)
			}
			if v, ok := kdf["threads"].(int); ok && v > 0 && v < 256 {
				cfg.Key.KDF.Threads = uint8(v)
			}
		}
	}

	if ledger, ok := raw["ledger"].(map[string]any); ok {
		if v, ok := ledger["enabled"].(bool); ok {
			cfg.Ledger.Enabled = v
		}
	}

	return cfg, nil
}

// stringList accepts either a YAML sequence or a comma-separated string.
func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out, true
	case string:
		var out []string
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Vecture home resolution
// ---------------------------------------------------------------------------

const homeKey = "vecture_home"

// globalConfigPath returns the path to the global vecture config file.
// This file stores only vecture_home.
func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vecture", "config.yaml"), nil
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ResolveHome returns the vecture home path and where it came from:
// "env" (VECTURE_HOME), "config" (persisted global config) or "default"
// (~/.vecture).
func ResolveHome() (path, source string) {
	if env := os.Getenv("VECTURE_HOME"); env != "" {
		if p, err := normalizePath(env); err == nil {
			return p, "env"
		}
	}
	if persisted, ok, _ := GetPersistedHome(); ok {
		return persisted, "config"
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vecture"), "default"
}

// GetHome returns the resolved vecture home path.
func GetHome() string {
	path, _ := ResolveHome()
	return path
}

// readGlobal returns the global config as a plain map. A missing or
// unparseable file yields an empty map.
func readGlobal() (cfgPath string, raw map[string]any, err error) {
	cfgPath, err = globalConfigPath()
	if err != nil {
		return "", nil, err
	}
	raw = make(map[string]any)
	data, err := os.ReadFile(cfgPath)
	switch {
	case os.IsNotExist(err):
		return cfgPath, raw, nil
	case err != nil:
		return "", nil, err
	}
	if yaml.Unmarshal(data, &raw) != nil || raw == nil {
		raw = make(map[string]any)
	}
	return cfgPath, raw, nil
}

// writeGlobal persists raw, removing the file once nothing is left in it.
func writeGlobal(cfgPath string, raw map[string]any) error {
	if len(raw) == 0 {
		if err := os.Remove(cfgPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return err
	}
	out, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(cfgPath, out, 0o600)
}

// GetPersistedHome reads vecture_home from the global config.
// Returns ("", false, nil) if not set.
func GetPersistedHome() (string, bool, error) {
	_, raw, err := readGlobal()
	if err != nil {
		return "", false, err
	}
	val, _ := raw[homeKey].(string)
	if val = strings.TrimSpace(val); val == "" {
		return "", false, nil
	}
	p, err := normalizePath(val)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// SetPersistedHome normalizes path, stores it as vecture_home and returns
// the normalized form.
func SetPersistedHome(path string) (string, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", err
	}
	cfgPath, raw, err := readGlobal()
	if err != nil {
		return "", err
	}
	raw[homeKey] = normalized
	if err := writeGlobal(cfgPath, raw); err != nil {
		return "", err
	}
	return normalized, nil
}

// ClearPersistedHome removes vecture_home from the global config and reports
// whether it was set.
func ClearPersistedHome() (bool, error) {
	cfgPath, raw, err := readGlobal()
	if err != nil {
		return false, err
	}
	if _, ok := raw[homeKey]; !ok {
		return false, nil
	}
	delete(raw, homeKey)
	return true, writeGlobal(cfgPath, raw)
}
