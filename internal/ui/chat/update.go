// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/routinechat/internal/conversation"
	"github.com/jeranaias/routinechat/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		next, cmd, handled := m.handleKey(msg)
		m = next
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if !handled && m.surface.InputEnabled() {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}

	case ReplyMsg:
		m.ctrl.Complete(msg.Turn, msg.Reply, msg.Err)

	case ConfigReloadedMsg:
		m.applyConfig(msg)

	case ConfigErrorMsg:
		m.statusMsg = "Config not applied: " + util.TruncateRunes(msg.Err.Error(), 120)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.ctrl.State() == conversation.StateAwaitingReply {
			m.refresh()
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.sync())
	return m, tea.Batch(cmds...)
}

// handleKey processes bound keys. handled is false for keys the text input
// should receive.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.quitting = true
		m.ctrl.Close()
		return m, tea.Quit, true

	case key.Matches(msg, m.keyMap.Reset):
		m.ctrl.Reset()
		m.input.Reset()
		m.statusMsg = "Started a new chat"
		return m, nil, true

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil, true

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil, true

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil, true

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil, true
	}
	return m, nil, false
}

// submit hands the typed text to the controller and starts the exchange.
func (m Model) submit() (Model, tea.Cmd, bool) {
	turn, err := m.ctrl.Begin(m.input.Value())
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		return m, nil, true
	case errors.Is(err, conversation.ErrBusy):
		m.statusMsg = "Still waiting for a reply..."
		return m, nil, true
	case err != nil:
		m.statusMsg = err.Error()
		return m, nil, true
	}

	m.input.Reset()
	m.statusMsg = ""
	return m, runTurn(m.ctrl, turn), true
}

// applyConfig applies the reloadable parts of a changed config file.
// Changes take effect on the next submission.
func (m *Model) applyConfig(msg ConfigReloadedMsg) {
	if msg.Config == nil {
		return
	}
	cfg := msg.Config
	if m.remote != nil {
		m.remote.Reconfigure(cfg.Remote.Endpoint, cfg.Remote.SystemPrompt)
	}
	m.ctrl.SetKeepHistory(cfg.UI.KeepHistory)
	m.statusMsg = "Config reloaded"
}

// sync pulls surface changes into the viewport and input.
func (m *Model) sync() tea.Cmd {
	var cmd tea.Cmd
	if m.surface.InputEnabled() {
		if !m.input.Focused() {
			cmd = m.input.Focus()
		}
	} else if m.input.Focused() {
		m.input.Blur()
	}

	dirty, scroll := m.surface.takeChanges()
	if dirty {
		m.refresh()
	}
	if scroll {
		m.viewport.GotoBottom()
	}
	return cmd
}

// resize lays out the components for a new terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	vpHeight := height - headerHeight - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 4
	m.ready = true
	m.refresh()
}

// refresh re-renders entries into the viewport.
func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderEntries())
	if atBottom {
		m.viewport.GotoBottom()
	}
}
