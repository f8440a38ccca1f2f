// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package token estimates token counts and tracks context-window budgets.
//
// The estimator is a cheap character-length heuristic used only for local
// budgeting. Billed usage always comes from the backend's usage events;
// the estimate is the fallback when no authoritative total exists yet.
//
// # Key Types
//
//   - Budget: a conversation's position against a model's context limit
//   - Level: the warning tier derived from percent used
//
// # Usage
//
//	b := token.NewBudget(0) // default 128k context window
//	pct := b.PercentUsed(conv)
//	if b.Level(conv) == token.LevelHard {
//	    // discourage further sends
//	}
package token
