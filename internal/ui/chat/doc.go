// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the terminal chat widget built on Bubble Tea.

# Key Components

## Surface (surface.go)

Surface implements conversation.Surface. Entries are stored as sanitized
literal text; the model re-renders them into the viewport whenever the
controller changes something.

## Model (model.go, update.go, view.go)

The Model owns the bubbles textinput, viewport and spinner. Enter hands the
input to the controller's Begin, the exchange runs as a tea.Cmd, and the
resulting ReplyMsg is passed to Complete on the UI goroutine.

# Key Bindings

	Enter   send the message
	Ctrl+N  start a new chat (cancels a pending reply)
	Ctrl+C  quit
	↑/↓     scroll, PgUp/PgDn page

# Usage

	surface := chat.NewSurface()
	ctrl := conversation.New(conversation.Options{Exchanger: client, Surface: surface})
	m := chat.New(chat.Options{Controller: ctrl, Surface: surface, Theme: theme, Remote: client})
	p := tea.NewProgram(m, tea.WithAltScreen())
*/
package chat
