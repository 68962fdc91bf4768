// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "errors"

var (
	// ErrEmptyInput is returned for empty or whitespace-only submissions.
	ErrEmptyInput = errors.New("empty input")

	// ErrBusy is returned when a submission arrives while a reply is pending.
	ErrBusy = errors.New("a reply is already pending")

	// ErrClosed is returned after the controller has been closed.
	ErrClosed = errors.New("conversation closed")

	// ErrStaleTurn is returned by Run for a turn discarded by Reset or Close.
	ErrStaleTurn = errors.New("turn no longer current")
)
