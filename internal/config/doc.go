// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for routinechat.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - RemoteConfig: Worker endpoint, system prompt, timeout, pacing
//   - UIConfig: Theme, history and greeting
//   - LogConfig: Diagnostic log level and destination
//   - Watcher: fsnotify-based hot reload
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ROUTINECHAT_*)
//   - ~/.routinechat/config.toml, config.yaml, config.yml, config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := cloud.NewClient(cfg.Remote.Endpoint)
package config
