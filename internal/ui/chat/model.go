// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/routinechat/internal/conversation"
	"github.com/jeranaias/routinechat/internal/ui/styles"
)

// Layout constants.
const (
	headerHeight = 3
	inputHeight  = 2
	statusHeight = 1

	// Character limit for a single message.
	inputCharLimit = 2000
)

// Remote is the part of the exchange client the UI reconfigures on reload.
// *cloud.Client satisfies it.
type Remote interface {
	Endpoint() string
	Reconfigure(endpoint, prompt string)
}

// Options configures New.
type Options struct {
	Controller *conversation.Controller
	Surface    *Surface
	Theme      *styles.Theme
	Remote     Remote // optional
	Title      string // optional header title
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Session
	ctrl    *conversation.Controller
	surface *Surface
	remote  Remote

	// Styling
	theme *styles.Theme
	title string

	// Dimensions
	width  int
	height int
	ready  bool

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap

	// Status
	statusMsg string
	quitting  bool
}

// New creates a chat model and mounts the session (greeting entry).
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	title := opts.Title
	if title == "" {
		title = "Routine Advisor"
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = "Ask about products or routines..."
	ti.CharLimit = inputCharLimit
	ti.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	m := Model{
		ctrl:     opts.Controller,
		surface:  opts.Surface,
		remote:   opts.Remote,
		theme:    theme,
		title:    title,
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
		keyMap:   DefaultKeyMap(),
	}
	m.ctrl.Mount()
	return m
}

// Init starts the cursor blink and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Surface returns the render surface.
func (m Model) Surface() *Surface {
	return m.surface
}

// Controller returns the session controller.
func (m Model) Controller() *conversation.Controller {
	return m.ctrl
}

// InputValue returns the text currently typed.
func (m Model) InputValue() string {
	return m.input.Value()
}

// StatusMessage returns the transient status line.
func (m Model) StatusMessage() string {
	return m.statusMsg
}
