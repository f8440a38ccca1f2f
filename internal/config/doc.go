// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and watches the tetsu configuration.
//
// Configuration is TOML at ~/.tetsu/config.toml, with environment
// variable overrides and built-in defaults. A file watcher can reload
// the configuration while the TUI is running.
//
// Precedence, highest first:
//   - Environment variables (TETSU_*)
//   - ~/.tetsu/config.toml
//   - Built-in defaults
package config
