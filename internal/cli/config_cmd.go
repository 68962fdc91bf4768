// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/routinechat/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigPathCmd(opts))
	cmd.AddCommand(newConfigInitCmd(opts))
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Prints the configuration after defaults, environment variables and flags are applied.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out, err := formatConfig(cfg, format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format (toml, json, yaml)")
	return cmd
}

func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists, err := resolveConfigPath(opts)
			if err != nil {
				return err
			}
			if exists {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (not created)\n", path)
			}
			return nil
		},
	}
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				p, err := config.ConfigPathTOML()
				if err != nil {
					return err
				}
				path = p
			}
			if ext := strings.ToLower(filepath.Ext(path)); ext != ".toml" && ext != "" {
				return &UsageError{Message: fmt.Sprintf("config init writes TOML, not %s", ext)}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
			}

			if err := config.SaveTOML(config.Default(), path); err != nil {
				return NewCommandError("config", "init", "could not write config", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveConfigPath returns the config file commands would use and whether
// it exists. Without one, the default TOML path is returned.
func resolveConfigPath(opts *rootOptions) (string, bool, error) {
	if opts.configPath != "" {
		_, err := os.Stat(opts.configPath)
		return opts.configPath, err == nil, nil
	}
	found, err := config.FindConfigFile()
	if err != nil {
		return "", false, err
	}
	if found != "" {
		return found, true, nil
	}
	path, err := config.ConfigPathTOML()
	return path, false, err
}

// formatConfig renders cfg as toml, json or yaml.
func formatConfig(cfg *config.Config, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "toml":
		return cfg.String(), nil
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode config: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml", "yml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("failed to encode config: %w", err)
		}
		return string(data), nil
	}
	return "", &UsageError{Message: fmt.Sprintf("unknown format %q (want toml, json or yaml)", format)}
}
