// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
)

// ErrPacing is returned when the context ends while a request waits for
// the rate limiter. Nothing was sent.
var ErrPacing = errors.New("request pacing interrupted")

// TransportError is a network-level failure reaching the endpoint
// (DNS, timeout, connection reset, cancellation).
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError is a non-2xx response from the endpoint.
// Body holds the response text verbatim.
type RemoteError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("worker error: %d %s", e.Status, e.Body)
}

// MalformedResponseError is a 2xx response without a usable
// choices[0].message.content field.
type MalformedResponseError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

// Unwrap returns the decode error, if any.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsCanceled reports whether err stems from a cancelled exchange.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
