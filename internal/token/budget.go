// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package token

import (
	"github.com/jeranaias/tetsu-tui/internal/model"
)

// =============================================================================
// BUDGET POLICY
// =============================================================================

// DefaultContextLimit is the assumed context window when the model's real
// limit is unknown.
const DefaultContextLimit = 131072

// Warning thresholds as percentages of the context limit.
const (
	// SoftThreshold is where a non-blocking warning starts.
	SoftThreshold = 70
	// HardThreshold is where further sends are strongly discouraged.
	HardThreshold = 90
	// SummarizeThreshold is where an automatic summary is requested.
	SummarizeThreshold = 80
)

// SummarizeMinMessages is the minimum conversation length before the
// automatic summary trigger applies.
const SummarizeMinMessages = 6

// SummarizeKeepRecent is how many trailing messages survive an automatic
// compaction; everything earlier collapses into the summary.
const SummarizeKeepRecent = 4

// Level is the warning tier for a conversation's context usage.
type Level int

const (
	// LevelNone means usage is comfortably under the limits.
	LevelNone Level = iota
	// LevelSoft means usage crossed the soft threshold; warn but allow.
	LevelSoft
	// LevelHard means usage crossed the hard threshold; discourage sends.
	LevelHard
)

// String returns the tier name for status displays.
func (l Level) String() string {
	switch l {
	case LevelSoft:
		return "soft"
	case LevelHard:
		return "hard"
	default:
		return "none"
	}
}

// =============================================================================
// BUDGET
// =============================================================================

// Budget evaluates a conversation against a fixed context-window limit.
// The zero value is not useful; construct with NewBudget.
type Budget struct {
	limit int
}

// NewBudget creates a budget for the given context limit. A limit of 0 or
// less selects DefaultContextLimit.
func NewBudget(limit int) *Budget {
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	return &Budget{limit: limit}
}

// Limit returns the context-window limit in tokens.
func (b *Budget) Limit() int {
	return b.limit
}

// Used returns the conversation's token usage: the authoritative cumulative
// total when the backend has reported one, otherwise the estimator's sum
// over all message contents.
func (b *Budget) Used(conv *model.Conversation) int {
	if conv == nil {
		return 0
	}
	if conv.Tokens.Total > 0 {
		return conv.Tokens.Total
	}
	return EstimateMessages(conv.Messages)
}

// PercentUsed returns usage as a percentage of the limit, capped at 100.
func (b *Budget) PercentUsed(conv *model.Conversation) int {
	pct := b.Used(conv) * 100 / b.limit
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Level returns the warning tier for the conversation's current usage.
func (b *Budget) Level(conv *model.Conversation) Level {
	pct := b.PercentUsed(conv)
	switch {
	case pct > HardThreshold:
		return LevelHard
	case pct >= SoftThreshold:
		return LevelSoft
	default:
		return LevelNone
	}
}

// ShouldSummarize reports whether the conversation has grown enough to
// trigger automatic compaction. Checked once after each completed
// assistant turn, never mid-stream.
func (b *Budget) ShouldSummarize(conv *model.Conversation) bool {
	if conv == nil || len(conv.Messages) < SummarizeMinMessages {
		return false
	}
	return b.PercentUsed(conv) >= SummarizeThreshold
}
