// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/routinechat/internal/config"
	"github.com/jeranaias/routinechat/internal/conversation"
)

// =============================================================================
// EXCHANGE MESSAGES
// =============================================================================

// ReplyMsg carries the settled result of one turn back to the UI goroutine.
type ReplyMsg struct {
	Turn  *conversation.Turn
	Reply string
	Err   error
}

// runTurn performs the exchange for turn off the UI goroutine.
func runTurn(ctrl *conversation.Controller, turn *conversation.Turn) tea.Cmd {
	return func() tea.Msg {
		reply, err := ctrl.Run(context.Background(), turn)
		return ReplyMsg{Turn: turn, Reply: reply, Err: err}
	}
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a config file that changed and validated.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a config file that failed to load.
type ConfigErrorMsg struct {
	Err error
}
