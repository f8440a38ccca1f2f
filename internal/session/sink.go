// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/token"
)

// =============================================================================
// SINK
// =============================================================================

// Sink receives the controller's progress notifications. Implementations
// translate them into UI updates (Bubble Tea messages, plain prints).
// Every method is called from the goroutine running the turn; the
// controller never calls a Sink method after the turn's terminal
// notification (Finished, Failed, or Cancelled).
type Sink interface {
	// StateChanged fires on every state-machine transition.
	StateChanged(state State)

	// AssistantDelta carries the FULL accumulated reply each time, not
	// the individual delta. A later delta can complete a markdown
	// construct an earlier partial render left open, so renderers must
	// re-derive output from the whole accumulator.
	AssistantDelta(accumulated string)

	// ToolStarted announces a pending tool invocation. Index identifies
	// the call within the current turn, in arrival order.
	ToolStarted(index int, name, args string)

	// ToolResolved resolves the most recently started unresolved call.
	ToolResolved(index int, name, result string)

	// UsageUpdated reports the conversation's cumulative usage after a
	// usage event was folded in.
	UsageUpdated(usage model.TokenUsage)

	// BudgetWarning fires when a send finds the context budget at or
	// past a warning threshold. A hard warning discourages but does not
	// block the send.
	BudgetWarning(level token.Level, percent int)

	// TitleChanged reports an asynchronously generated title.
	TitleChanged(title string)

	// Finished concludes a successful turn. Msg is the appended
	// assistant message, or nil when the reply was empty.
	Finished(msg *model.Message)

	// Failed concludes a failed turn. The accumulated partial content
	// is retained for display alongside a retry affordance; it is not
	// appended to the conversation.
	Failed(err error, partial string)

	// Cancelled concludes a cancelled turn. Partial content was
	// appended as the final assistant message; when empty the UI shows
	// a cancellation placeholder instead.
	Cancelled(partial string)
}

// NopSink discards every notification. Embed it to implement only the
// methods a surface cares about.
type NopSink struct{}

func (NopSink) StateChanged(State)                   {}
func (NopSink) AssistantDelta(string)                {}
func (NopSink) ToolStarted(int, string, string)      {}
func (NopSink) ToolResolved(int, string, string)     {}
func (NopSink) UsageUpdated(model.TokenUsage)        {}
func (NopSink) BudgetWarning(token.Level, int)       {}
func (NopSink) TitleChanged(string)                  {}
func (NopSink) Finished(*model.Message)              {}
func (NopSink) Failed(error, string)                 {}
func (NopSink) Cancelled(string)                     {}
