// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the routinechat TUI.

All colors use Lip Gloss AdaptiveColor for light/dark terminals. The theme
mode comes from ui.theme; "auto" queries the terminal background through
termenv.

Entries are drawn as bubbles: user entries in rose on the right-hand margin,
assistant entries in gold on the left.

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	bubble := theme.UserBubble.Width(theme.BubbleWidth()).Render(text)
*/
package styles
