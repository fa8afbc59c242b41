package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/example/cwl/internal/appconfig"
	"github.com/spf13/cobra"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the cwl config file",
		Long: `Manage cwl's persisted settings.

The global file lives at ~/.config/cwl/config.toml (override with --config or
CWL_CONFIG). A .cwl.toml at the repository root is merged over it. Files
ending in .yaml or .yml are read as YAML.`,
	}
	cmd.AddCommand(newConfigInitCommand(a), newConfigShowCommand(a))
	return cmd
}

func newConfigInitCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				return fmt.Errorf("cannot determine the config location; pass --config")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := appconfig.Save(path, appconfig.Default()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), doneColor.Sprintf("✓ Wrote %s", path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(strings.TrimSpace(output))
			switch format {
			case "toml", "":
				format = "toml"
			case "yaml", "yml":
				format = "yaml"
			default:
				return fmt.Errorf("invalid --output value %q (must be one of: toml, yaml)", output)
			}
			status(cmd, "Config: %s", a.configPath)
			return appconfig.Encode(cmd.OutOrStdout(), a.cfg, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "toml", "Output format: toml or yaml")
	return cmd
}
