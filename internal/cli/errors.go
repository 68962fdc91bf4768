// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error classification for CLI commands.
//
// Commands always return errors; Execute maps them to an exit code.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/routinechat/internal/cloud"
	"github.com/jeranaias/routinechat/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the chat worker could not be reached or
	// answered with an error
	ExitNetworkError = 5
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "ask", "config")
	Action  string // Action being performed (e.g., "init")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a CommandError.
func NewCommandError(command, action, reason string, err error) *CommandError {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// UsageError reports invalid arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usageErr     *UsageError
		transportErr *cloud.TransportError
		remoteErr    *cloud.RemoteError
		malformedErr *cloud.MalformedResponseError
	)
	switch {
	case errors.As(err, &usageErr):
		return ExitUsageError
	case config.IsValidationError(err), config.IsLoadError(err):
		return ExitConfigError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.As(err, &transportErr), errors.As(err, &remoteErr), errors.As(err, &malformedErr):
		return ExitNetworkError
	}
	return ExitGeneralError
}
