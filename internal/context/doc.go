// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package context expands @ mentions in user input into file contents
// before a message is sent.
//
// Files are read through the backend's workspace API, so the TUI never
// touches the workspace directly and mentions resolve identically over
// every transport.
//
// # Key Types
//
//   - Mention: one parsed @file reference
//   - Expander: resolves mentions and builds the enriched message
//
// # Usage
//
//	exp := context.NewExpander(client)
//	result := exp.Expand(ctx, "explain @file:internal/kv/kv.go please")
//	send(result.Expanded)
package context
