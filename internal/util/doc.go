// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small text and file helpers shared by the widget.
//
// SanitizeText is the single gate every rendered string passes through;
// AtomicWrite backs `routinechat config init` and the REPL history file.
package util
