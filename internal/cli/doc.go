// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the routinechat command line.
//
// # Commands
//
//   - (default): interactive chat, full-screen TUI on a terminal and a
//     line-mode REPL otherwise or with --plain
//   - ask: single question, reply printed to stdout
//   - config show|path|init: configuration management
//   - version: build information
//
// # Usage
//
//	os.Exit(cli.Execute())
//
// Global flags override the config file and ROUTINECHAT_* environment
// variables for the current run only.
package cli
