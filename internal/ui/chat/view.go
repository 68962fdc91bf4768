// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/routinechat/internal/conversation"
	"github.com/jeranaias/routinechat/internal/ui/styles"
	"github.com/jeranaias/routinechat/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	content := m.theme.HeaderTitle.Render(m.title)
	if name := m.ctrl.SessionName(); name != "" {
		content += m.theme.HeaderSubtitle.Render("  chatting with ") +
			m.theme.SessionName.Render(util.TruncateWidth(name, 20))
	}

	return m.theme.Header.Width(width - 2).Render(content)
}

// =============================================================================
// ENTRIES
// =============================================================================

// renderEntries renders every surface entry, user entries pushed right.
func (m Model) renderEntries() string {
	entries := m.surface.Entries()
	if len(entries) == 0 {
		return ""
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, m.renderEntry(e))
	}
	return strings.Join(parts, "\n")
}

func (m Model) renderEntry(e *Entry) string {
	text := e.Text()
	maxWidth := m.theme.BubbleWidth()
	if maxWidth < 10 {
		maxWidth = 10
	}

	if e.Class() == conversation.ClassUser {
		bubble := m.bubble(m.theme.UserBubble, text, maxWidth)
		marginLeft := m.width - lipgloss.Width(bubble) - 2
		if marginLeft < 0 {
			marginLeft = 0
		}
		return lipgloss.NewStyle().MarginLeft(marginLeft).Render(bubble)
	}

	if text == conversation.PlaceholderText && m.ctrl.State() == conversation.StateAwaitingReply {
		text = m.spinner.View() + " " + m.theme.PendingText.Render(text)
		return m.theme.AssistantBubble.Render(text)
	}
	return m.bubble(m.theme.AssistantBubble, text, maxWidth)
}

// bubble renders text in style, shrinking the bubble to short text.
func (m Model) bubble(style lipgloss.Style, text string, maxWidth int) string {
	widest := 0
	for _, line := range strings.Split(text, "\n") {
		if w := util.StringWidth(line); w > widest {
			widest = w
		}
	}
	width := widest + style.GetHorizontalPadding()
	if width > maxWidth {
		width = maxWidth
	}
	return style.Width(width).Render(text)
}

// =============================================================================
// INPUT & STATUS
// =============================================================================

func (m Model) renderInput() string {
	if !m.surface.InputEnabled() {
		return m.theme.InputContainer.Width(m.width - 2).
			Render(m.theme.InputDisabled.Render("waiting for a reply..."))
	}
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var state string
	if m.ctrl.State() == conversation.StateAwaitingReply {
		state = m.theme.StatusWaiting.Render("● thinking")
	} else {
		state = m.theme.StatusReady.Render("● ready")
	}

	parts := []string{state}
	if m.statusMsg != "" {
		parts = append(parts, util.TruncateWidth(util.SanitizeText(m.statusMsg), m.width/2))
	}
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	if m.remote != nil && m.theme.GetLayoutMode() != styles.LayoutNarrow {
		parts = append(parts, m.theme.ShortcutDesc.Render(util.TruncateWidth(m.remote.Endpoint(), 40)))
	}

	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}
