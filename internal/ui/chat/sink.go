// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sink.go - Bridge from session controller callbacks to Bubble Tea
// messages.

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/session"
	"github.com/jeranaias/tetsu-tui/internal/token"
)

// =============================================================================
// MESSAGES
// =============================================================================

type stateChangedMsg struct{ state session.State }

type assistantDeltaMsg struct{ accumulated string }

type toolStartedMsg struct {
	index int
	name  string
	args  string
}

type toolResolvedMsg struct {
	index  int
	name   string
	result string
}

type usageMsg struct{ usage model.TokenUsage }

type budgetWarningMsg struct {
	level   token.Level
	percent int
}

type titleChangedMsg struct{ title string }

type finishedMsg struct{ msg *model.Message }

type failedMsg struct {
	err     error
	partial string
}

type cancelledMsg struct{ partial string }

// sendResultMsg reports the outcome of the send command itself, which
// matters only for ErrBusy; stream outcomes arrive through the sink.
type sendResultMsg struct{ err error }

// =============================================================================
// UI SINK
// =============================================================================

// deltaRate caps transcript redraws during streaming at roughly 30fps.
// Deltas carry the full accumulator, so dropping intermediates loses
// nothing.
const deltaInterval = 33 * time.Millisecond

// UISink forwards controller notifications into a channel the Bubble
// Tea model drains. The channel is buffered so the streaming goroutine
// rarely blocks on a slow terminal.
type UISink struct {
	ch      chan tea.Msg
	limiter *rate.Limiter
}

// NewUISink creates the bridge.
func NewUISink() *UISink {
	return &UISink{
		ch:      make(chan tea.Msg, 64),
		limiter: rate.NewLimiter(rate.Every(deltaInterval), 1),
	}
}

// Wait returns a command that delivers the next sink message.
func (s *UISink) Wait() tea.Cmd {
	return func() tea.Msg {
		return <-s.ch
	}
}

func (s *UISink) post(msg tea.Msg) {
	s.ch <- msg
}

func (s *UISink) StateChanged(state session.State) {
	s.post(stateChangedMsg{state})
}

// AssistantDelta is rate limited. Terminal notifications carry the
// final content, so a dropped trailing delta cannot lose text.
func (s *UISink) AssistantDelta(accumulated string) {
	if !s.limiter.Allow() {
		return
	}
	s.post(assistantDeltaMsg{accumulated})
}

func (s *UISink) ToolStarted(index int, name, args string) {
	s.post(toolStartedMsg{index, name, args})
}

func (s *UISink) ToolResolved(index int, name, result string) {
	s.post(toolResolvedMsg{index: index, name: name, result: result})
}

func (s *UISink) UsageUpdated(usage model.TokenUsage) {
	s.post(usageMsg{usage})
}

func (s *UISink) BudgetWarning(level token.Level, percent int) {
	s.post(budgetWarningMsg{level, percent})
}

func (s *UISink) TitleChanged(title string) {
	s.post(titleChangedMsg{title})
}

func (s *UISink) Finished(msg *model.Message) {
	s.post(finishedMsg{msg})
}

func (s *UISink) Failed(err error, partial string) {
	s.post(failedMsg{err, partial})
}

func (s *UISink) Cancelled(partial string) {
	s.post(cancelledMsg{partial})
}
