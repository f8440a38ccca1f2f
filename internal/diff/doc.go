// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff computes and renders the file changes the model proposes
// through tool calls, and tracks the approve/reject queue for them.
//
// # Key Types
//
//   - Edit: one proposed file change, with hunks and stats
//   - Queue: pending edits awaiting an approve or reject decision
//
// # Usage
//
//	edit := diff.Compute("main.go", oldSrc, newSrc)
//	fmt.Print(edit.Unified())
package diff
