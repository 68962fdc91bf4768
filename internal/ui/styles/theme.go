// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the routinechat TUI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style
	SessionName    lipgloss.Style

	// ==========================================================================
	// ENTRY STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	PendingText     lipgloss.Style
	Spinner         lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	InputDisabled  lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusReady   lipgloss.Style
	StatusWaiting lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style
}

// NewTheme creates a theme for mode ("auto", "dark" or "light").
// "auto" asks the terminal for its background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.SessionName = lipgloss.NewStyle().
		Foreground(Gold).
		Bold(true)

	// Entries
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		Background(AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 2).
		MarginRight(4)

	t.PendingText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Gold)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.InputDisabled = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusReady = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StatusWaiting = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth returns the wrap width for entry bubbles.
func (t *Theme) BubbleWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return max(t.Width-10, 10)
	case LayoutMedium:
		return t.Width - 14
	default:
		return t.Width * 3 / 4
	}
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
