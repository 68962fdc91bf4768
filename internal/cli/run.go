// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/routinechat/internal/config"
	"github.com/jeranaias/routinechat/internal/ui/chat"
	"github.com/jeranaias/routinechat/internal/ui/plain"
	"github.com/jeranaias/routinechat/internal/ui/styles"
)

// historyFileName is the REPL input history kept in the config directory.
const historyFileName = "history"

// runChat starts an interactive session: the TUI on a terminal, the
// line-mode REPL otherwise.
func runChat(cmd *cobra.Command, opts *rootOptions) error {
	s, err := opts.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if Interactive() && !opts.plain {
		return runTUI(s, opts)
	}
	return runPlain(cmd, s)
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(s *session, opts *rootOptions) error {
	surface := chat.NewSurface()
	ctrl := s.newController(surface)
	defer ctrl.Close()

	m := chat.New(chat.Options{
		Controller: ctrl,
		Surface:    surface,
		Theme:      styles.NewTheme(s.cfg.UI.Theme),
		Remote:     s.client,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse scrolling
	)

	if s.configPath != "" {
		if w, err := watchConfig(s.configPath, opts, p); err != nil {
			s.logger.Warn().Err(err).Str("path", s.configPath).Msg("config hot reload disabled")
		} else {
			defer w.Close()
		}
	}

	s.logger.Info().Str("session", ctrl.SessionID()).Msg("tui started")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running routinechat: %w", err)
	}
	return nil
}

// watchConfig forwards config file changes to the running program.
func watchConfig(path string, opts *rootOptions, p *tea.Program) (*config.Watcher, error) {
	w, err := config.NewWatcher(path,
		func(cfg *config.Config) { p.Send(opts.reloadedMsg(cfg)) },
		func(err error) { p.Send(chat.ConfigErrorMsg{Err: err}) },
	)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// reloadedMsg re-applies the flag overrides to a reloaded config.
func (o *rootOptions) reloadedMsg(cfg *config.Config) tea.Msg {
	if err := o.applyOverrides(cfg); err != nil {
		return chat.ConfigErrorMsg{Err: err}
	}
	return chat.ConfigReloadedMsg{Config: cfg}
}

// =============================================================================
// LINE MODE
// =============================================================================

func runPlain(cmd *cobra.Command, s *session) error {
	tty := IsStdoutTTY()
	surface := plain.NewSurface(cmd.OutOrStdout(),
		plain.WithTerminal(tty && ColorEnabled()),
		plain.WithWidth(GetTerminalWidth()),
	)
	ctrl := s.newController(surface)

	reader := plain.NewLinerReader(historyPath())
	defer reader.Close()

	s.logger.Info().Str("session", ctrl.SessionID()).Bool("tty", tty).Msg("line mode started")
	return plain.NewREPL(ctrl, reader, cmd.OutOrStdout(), s.logger.Logger).Run(cmd.Context())
}

// historyPath returns the REPL history file, or "" when the config
// directory is unavailable.
func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return ""
	}
	return filepath.Join(dir, historyFileName)
}
