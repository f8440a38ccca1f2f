// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable view pieces of the tetsu
// TUI: message rendering, the status bar, spinners, the conversation
// list, and the pending-edit diff panel.
//
// Components are plain renderers where possible. Only the spinner keeps
// Bubble Tea state of its own; everything else takes its data as
// arguments and returns a string for the parent view to place.
package components
