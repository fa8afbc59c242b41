// File: internal/appconfig/config.go
// Brief: Internal appconfig package implementation for 'persisted config'.

// Package appconfig loads cwl's persisted configuration: default region,
// output mode and event limit, named profiles, and log group aliases. A
// global file under ~/.config/cwl is merged with an optional project file.
package appconfig

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultRegion is written by `cwl config init`.
	DefaultRegion    = "us-east-1"
	DefaultOutput    = "colored"
	DefaultMaxEvents = 1000

	globalRelPath = "~/.config/cwl/config.toml"
	// ProjectFile is looked up at the repository root.
	ProjectFile = ".cwl.toml"
)

// Defaults are the fallback values applied when flags and environment do not
// set them. An empty Region leaves region selection to the AWS SDK chain.
type Defaults struct {
	Region    string `toml:"region,omitempty" yaml:"region,omitempty"`
	Output    string `toml:"output,omitempty" yaml:"output,omitempty"`
	MaxEvents int    `toml:"max_events,omitempty" yaml:"max_events,omitempty"`
}

// Config is the persisted configuration record.
type Config struct {
	Defaults Defaults           `toml:"defaults" yaml:"defaults"`
	Profiles map[string]Profile `toml:"profiles,omitempty" yaml:"profiles,omitempty"`
	Aliases  map[string]string  `toml:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Default returns the record `cwl config init` writes.
func Default() Config {
	return Config{
		Defaults: Defaults{Region: DefaultRegion, Output: DefaultOutput, MaxEvents: DefaultMaxEvents},
	}
}

// DefaultGlobalPath returns the expanded default config location.
func DefaultGlobalPath() string {
	path, err := homedir.Expand(globalRelPath)
	if err != nil {
		return ""
	}
	return path
}

// ResolvePath expands a user supplied path, falling back to the default
// global location when explicit is empty.
func ResolvePath(explicit string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		return DefaultGlobalPath(), nil
	}
	expanded, err := homedir.Expand(explicit)
	if err != nil {
		return "", fmt.Errorf("expand config path %q: %w", explicit, err)
	}
	return expanded, nil
}

// Load reads the global file and, when repoPath is set, merges the project
// file over it. Missing files contribute nothing. Output and MaxEvents fall
// back to their defaults.
func Load(globalPath, repoPath string) (Config, error) {
	cfg := Config{}
	if strings.TrimSpace(globalPath) != "" {
		c, err := loadOne(globalPath)
		if err != nil {
			return Config{}, fmt.Errorf("load global config: %w", err)
		}
		cfg = merge(cfg, c)
	}
	if strings.TrimSpace(repoPath) != "" {
		c, err := loadOne(repoPath)
		if err != nil {
			return Config{}, fmt.Errorf("load project config: %w", err)
		}
		cfg = merge(cfg, c)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func loadOne(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Config{}, nil
	}
	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(raw, &cfg)
	} else {
		err = toml.Unmarshal(raw, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories. The format follows
// the file extension: .yaml/.yml for YAML, TOML otherwise.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	var buf bytes.Buffer
	format := "toml"
	if isYAML(path) {
		format = "yaml"
	}
	if err := Encode(&buf, cfg, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Encode writes cfg as "toml" or "yaml".
func Encode(w io.Writer, cfg Config, format string) error {
	switch strings.ToLower(format) {
	case "", "toml":
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown config format %q (expected toml or yaml)", format)
	}
}

// ResolveGroup maps an alias to its log group. Names without an alias are
// returned unchanged.
func (c Config) ResolveGroup(name string) string {
	if target, ok := c.Aliases[name]; ok && strings.TrimSpace(target) != "" {
		return target
	}
	return name
}

// ResolveGroups applies ResolveGroup to every name.
func (c Config) ResolveGroups(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = c.ResolveGroup(n)
	}
	return out
}

// RegionFor returns the region configured for profile, falling back to the
// default region. It may be empty.
func (c Config) RegionFor(profile string) string {
	if p, ok := c.Profiles[profile]; ok && p.Region != "" {
		return p.Region
	}
	return c.Defaults.Region
}

func (c *Config) applyDefaults() {
	if c.Defaults.Output == "" {
		c.Defaults.Output = DefaultOutput
	}
	if c.Defaults.MaxEvents <= 0 {
		c.Defaults.MaxEvents = DefaultMaxEvents
	}
}

func merge(a, b Config) Config {
	out := a
	if b.Defaults.Region != "" {
		out.Defaults.Region = b.Defaults.Region
	}
	if b.Defaults.Output != "" {
		out.Defaults.Output = b.Defaults.Output
	}
	if b.Defaults.MaxEvents > 0 {
		out.Defaults.MaxEvents = b.Defaults.MaxEvents
	}
	out.Profiles = mergeProfiles(a.Profiles, b.Profiles)
	out.Aliases = mergeAliases(a.Aliases, b.Aliases)
	return out
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
