// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package names derives a display name from free-form chat input.
package names

import (
	"regexp"
)

// introPattern matches "my name is X", "I am X" and "I'm X" in any case.
// X is a single \w+ token; the capture keeps the original case. Any Unicode
// space separates the phrase from X.
var introPattern = regexp.MustCompile(`(?i)(?:my name is|I am|I'm)[\s\p{Zs}]+(\w+)`)

// Extract returns the name introduced in text, if any.
// The leftmost match wins.
func Extract(text string) (string, bool) {
	m := introPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Annotate appends the "(from NAME)" suffix sent to the remote endpoint.
// An empty name leaves text unchanged.
func Annotate(text, name string) string {
	if name == "" {
		return text
	}
	return text + " (from " + name + ")"
}
