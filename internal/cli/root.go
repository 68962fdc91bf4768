// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/routinechat/internal/cloud"
	"github.com/jeranaias/routinechat/internal/config"
	"github.com/jeranaias/routinechat/internal/conversation"
	"github.com/jeranaias/routinechat/internal/logging"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the global flags shared by every command.
type rootOptions struct {
	configPath string
	endpoint   string
	logLevel   string
	logFile    string
	plain      bool
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCmd builds the routinechat command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "routinechat",
		Short: "Chat with a beauty routine advisor",
		Long: "routinechat talks to a chat-completion worker about foundations, skincare,\n" +
			"haircare and personalized routines. On a terminal it opens a full-screen\n" +
			"chat; otherwise, or with --plain, it runs a line-mode session.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to config file (TOML, YAML or JSON)")
	pf.StringVar(&opts.endpoint, "endpoint", "", "chat worker URL")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&opts.logFile, "log-file", "", `log file path ("-" for stderr)`)
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "use the line-mode session even on a terminal")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &UsageError{Message: err.Error()}
	})

	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "routinechat %s (commit: %s, built: %s)\n", Version, GitCommit, BuildDate)
		},
	}
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(NewRootCmd())
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return ExitCode(err)
	}
	return ExitSuccess
}

// =============================================================================
// SESSION SETUP
// =============================================================================

// loadConfig loads the config file (explicit, discovered or defaults) and
// applies flag overrides. The returned path is "" when no file was used.
func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	path := o.configPath
	if path == "" {
		found, err := config.FindConfigFile()
		if err != nil {
			return nil, "", err
		}
		path = found
	}

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}

	if err := o.applyOverrides(cfg); err != nil {
		return nil, "", err
	}

	config.SetGlobal(cfg)
	return cfg, path, nil
}

// applyOverrides sets the flag values on cfg and validates the result.
// Reloaded configs pass through here too, so flags keep precedence.
func (o *rootOptions) applyOverrides(cfg *config.Config) error {
	if o.endpoint != "" {
		cfg.Remote.Endpoint = o.endpoint
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// session bundles what every chat command needs.
type session struct {
	cfg        *config.Config
	configPath string
	logger     *logging.Logger
	client     *cloud.Client
}

// openSession loads config, opens the log and builds the worker client.
// An empty log.file logs to the default log file so diagnostics never
// mix with chat output.
func (o *rootOptions) openSession() (*session, error) {
	cfg, path, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logFile := cfg.Log.File
	if logFile == "" {
		if logFile, err = config.DefaultLogPath(); err != nil {
			return nil, err
		}
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: logFile})
	if err != nil {
		return nil, err
	}

	client := cloud.NewClient(cfg.Remote.Endpoint).
		WithSystemPrompt(cfg.Remote.SystemPrompt).
		WithTimeout(cfg.Remote.Timeout()).
		WithRateLimit(cfg.Remote.RateLimitPerMinute).
		WithLogger(logger.Logger)

	logger.Debug().
		Str("endpoint", client.Endpoint()).
		Str("config", path).
		Msg("session configured")

	return &session{cfg: cfg, configPath: path, logger: logger, client: client}, nil
}

// newController creates a conversation controller rendering to surface.
func (s *session) newController(surface conversation.Surface) *conversation.Controller {
	return conversation.New(conversation.Options{
		Exchanger:   s.client,
		Surface:     surface,
		Logger:      s.logger.Logger,
		Greeting:    s.cfg.UI.Greeting,
		KeepHistory: s.cfg.UI.KeepHistory,
	})
}

// Close releases the log file.
func (s *session) Close() error {
	return s.logger.Close()
}
