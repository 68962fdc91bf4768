// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Rose is the brand accent (header, prompt).
var Rose = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FB7185"}

// Gold is the secondary accent (session name, spinner).
var Gold = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}

// Emerald marks the ready state.
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Amber marks the awaiting state.
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// TEXT COLORS
// =============================================================================

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// BUBBLE COLORS
// =============================================================================

// User entries
var UserBubbleBg = lipgloss.AdaptiveColor{Light: "#FCE7F3", Dark: "#831843"}
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#9D174D", Dark: "#FCE7F3"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#EC4899", Dark: "#EC4899"}

// Assistant entries
var AssistantBubbleBg = lipgloss.AdaptiveColor{Light: "#FFFBEB", Dark: "#3B3224"}
var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#78350F", Dark: "#FEF3C7"}
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#D4A64A"}
