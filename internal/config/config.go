// File: internal/config/config.go
// Brief: Internal config package implementation for 'config'.

// Package config defines the flag plumbing and runtime options shared by cwl's
// commands, translating Cobra/Viper flag values into strongly typed structs
// that the query, tail and group listing pipelines consume.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/cwl/internal/timerange"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Output modes for event rendering.
const (
	OutputColored = "colored"
	OutputPlain   = "plain"
	OutputTable   = "table"
	OutputJSON    = "json"
)

// Built-in defaults used when neither flags, environment nor the config file
// provide a value.
const (
	DefaultOutput    = OutputColored
	DefaultMaxEvents = 1000
	DefaultLogLevel  = "warn"

	// TailWindow and TailLimit bound a tail without --follow.
	TailWindow = 5 * time.Minute
	TailLimit  = 100
)

// GlobalOptions holds the persistent flags every command shares.
type GlobalOptions struct {
	Profile    string
	Region     string
	ConfigPath string
	LogLevel   string
	ColorMode  string
}

// NewGlobalOptions returns GlobalOptions with defaults applied.
func NewGlobalOptions() *GlobalOptions {
	return &GlobalOptions{LogLevel: DefaultLogLevel, ColorMode: "auto"}
}

// BindFlags attaches the persistent flags to fs and returns their names.
func (o *GlobalOptions) BindFlags(fs *pflag.FlagSet) []string {
	fs.StringVarP(&o.Profile, "profile", "p", "", "AWS profile to use")
	fs.StringVarP(&o.Region, "region", "r", "", "AWS region (defaults to the profile or config file region)")
	fs.StringVar(&o.ConfigPath, "config", "", "Path to the cwl config file (default ~/.config/cwl/config.toml)")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Diagnostic log level: debug, info, warn, or error")
	fs.StringVarP(&o.ColorMode, "color", "m", o.ColorMode, "Color output: 'auto' colorizes when a tty is attached, 'always', or 'never'")
	return []string{"profile", "region", "config", "log-level", "color"}
}

// Validate normalizes the color mode.
func (o *GlobalOptions) Validate() error {
	mode, err := normalizeColorMode(o.ColorMode)
	if err != nil {
		return err
	}
	o.ColorMode = mode
	o.Profile = strings.TrimSpace(o.Profile)
	o.Region = strings.TrimSpace(o.Region)
	return nil
}

// QueryOptions configures `cwl query`.
type QueryOptions struct {
	Since       string
	Start       string
	End         string
	Filter      string
	Limit       int
	Output      string
	Field       string
	NoHighlight bool
	LevelColors bool

	// Range is resolved by Validate.
	Range timerange.Range
}

// NewQueryOptions returns QueryOptions with defaults applied.
func NewQueryOptions() *QueryOptions {
	return &QueryOptions{Limit: DefaultMaxEvents, Output: DefaultOutput}
}

// AddFlags binds query flags to the provided Cobra command.
func (o *QueryOptions) AddFlags(cmd *cobra.Command) []string {
	return o.BindFlags(cmd.Flags())
}

// BindFlags attaches query flags to fs and returns the flag names.
func (o *QueryOptions) BindFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.StringVar(&o.Since, "since", "", "Relative window ending now, e.g. 30m, 1h, 2d (overrides --start/--end)")
	names = append(names, "since")
	fs.StringVar(&o.Start, "start", "", "Window start: Unix timestamp (s or ms) or YYYY-MM-DD HH:MM:SS (UTC)")
	names = append(names, "start")
	fs.StringVar(&o.End, "end", "", "Window end: Unix timestamp (s or ms) or YYYY-MM-DD HH:MM:SS (UTC)")
	names = append(names, "end")
	fs.StringVarP(&o.Filter, "filter", "f", "", "CloudWatch filter pattern")
	names = append(names, "filter")
	fs.IntVarP(&o.Limit, "limit", "l", o.Limit, "Maximum number of events, 0 for no limit")
	names = append(names, "limit")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output mode: colored, plain, table, or json")
	names = append(names, "output")
	fs.StringVar(&o.Field, "field", "", "Print only this dotted JSON field of each message when present (e.g. req.path)")
	names = append(names, "field")
	fs.BoolVar(&o.NoHighlight, "no-highlight", false, "Do not highlight filter matches")
	names = append(names, "no-highlight")
	fs.BoolVar(&o.LevelColors, "level-colors", false, "Color severity words such as ERROR and WARN")
	names = append(names, "level-colors")
	return names
}

// Validate checks the output mode and limit and resolves the time window
// against now. Time expression errors surface before any retrieval.
func (o *QueryOptions) Validate(now time.Time) error {
	output, err := normalizeOutput(o.Output, true)
	if err != nil {
		return err
	}
	o.Output = output
	if o.Limit < 0 {
		return fmt.Errorf("--limit cannot be negative (use 0 for no limit)")
	}
	r, err := timerange.Resolve(o.Since, o.Start, o.End, now)
	if err != nil {
		return err
	}
	o.Range = r
	return nil
}

// TailOptions configures `cwl tail`.
type TailOptions struct {
	Follow      bool
	Filter      string
	Highlight   bool
	Output      string
	Field       string
	LevelColors bool
}

// NewTailOptions returns TailOptions with defaults applied.
func NewTailOptions() *TailOptions {
	return &TailOptions{Output: DefaultOutput}
}

// AddFlags binds tail flags to the provided Cobra command.
func (o *TailOptions) AddFlags(cmd *cobra.Command) []string {
	return o.BindFlags(cmd.Flags())
}

// BindFlags attaches tail flags to fs and returns the flag names.
func (o *TailOptions) BindFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.BoolVarP(&o.Follow, "follow", "F", false, "Keep polling for new events until interrupted")
	names = append(names, "follow")
	fs.StringVarP(&o.Filter, "filter", "f", "", "CloudWatch filter pattern")
	names = append(names, "filter")
	fs.BoolVar(&o.Highlight, "highlight", false, "Highlight filter matches in messages")
	names = append(names, "highlight")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output mode: colored, plain, table (without --follow), or json")
	names = append(names, "output")
	fs.StringVar(&o.Field, "field", "", "Print only this dotted JSON field of each message when present")
	names = append(names, "field")
	fs.BoolVar(&o.LevelColors, "level-colors", false, "Color severity words such as ERROR and WARN")
	names = append(names, "level-colors")
	return names
}

// Validate checks the output mode. The table layout needs the whole result
// set, so it cannot be combined with --follow.
func (o *TailOptions) Validate() error {
	output, err := normalizeOutput(o.Output, !o.Follow)
	if err != nil {
		return err
	}
	o.Output = output
	return nil
}

// GroupsOptions configures `cwl groups`.
type GroupsOptions struct {
	Prefix string
	Filter string
	Long   bool
	Output string

	// FilterRegex is compiled by Validate.
	FilterRegex *regexp.Regexp
}

// NewGroupsOptions returns GroupsOptions with defaults applied.
func NewGroupsOptions() *GroupsOptions {
	return &GroupsOptions{Output: "names"}
}

// AddFlags binds group listing flags to the provided Cobra command.
func (o *GroupsOptions) AddFlags(cmd *cobra.Command) []string {
	return o.BindFlags(cmd.Flags())
}

// BindFlags attaches group listing flags to fs and returns the flag names.
func (o *GroupsOptions) BindFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.StringVar(&o.Prefix, "prefix", "", "Only list groups whose name starts with this prefix (server-side)")
	names = append(names, "prefix")
	fs.StringVarP(&o.Filter, "filter", "f", "", "Regex applied to group names (client-side)")
	names = append(names, "filter")
	fs.BoolVarP(&o.Long, "long", "L", false, "Show retention, stored bytes and creation time")
	names = append(names, "long")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format: names, json, or yaml")
	names = append(names, "output")
	return names
}

// Validate compiles the name filter and normalizes the output format.
func (o *GroupsOptions) Validate() error {
	if o.Filter != "" {
		re, err := regexp.Compile(o.Filter)
		if err != nil {
			return fmt.Errorf("invalid --filter regex %q: %w", o.Filter, err)
		}
		o.FilterRegex = re
	}
	switch strings.ToLower(strings.TrimSpace(o.Output)) {
	case "", "names":
		o.Output = "names"
		if o.Long {
			o.Output = "long"
		}
	case "json":
		o.Output = "json"
	case "yaml", "yml":
		o.Output = "yaml"
	default:
		return fmt.Errorf("invalid --output value %q (must be one of: names, json, yaml)", o.Output)
	}
	return nil
}

// ValidOutput reports whether mode names an event output mode.
func ValidOutput(mode string) bool {
	_, err := normalizeOutput(mode, true)
	return err == nil
}

func normalizeOutput(mode string, allowTable bool) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", OutputColored, "color":
		return OutputColored, nil
	case OutputPlain, "text":
		return OutputPlain, nil
	case OutputTable, "formatted":
		if !allowTable {
			return "", fmt.Errorf("--output table cannot be combined with --follow")
		}
		return OutputTable, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("invalid --output value %q (must be one of: colored, plain, table, json)", mode)
	}
}

func normalizeColorMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return "auto", nil
	case "always":
		return "always", nil
	case "never":
		return "never", nil
	default:
		return "", fmt.Errorf("invalid --color value %q (allowed: auto, always, never)", mode)
	}
}
