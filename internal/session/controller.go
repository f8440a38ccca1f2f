// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/jeranaias/tetsu-tui/internal/log"
	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/store"
	"github.com/jeranaias/tetsu-tui/internal/stream"
	"github.com/jeranaias/tetsu-tui/internal/token"
)

// =============================================================================
// STATES
// =============================================================================

// State is the controller's position in the turn lifecycle.
type State int

const (
	// StateIdle means no turn is in flight; sends are accepted.
	StateIdle State = iota
	// StateSending means the request is on the wire, no response yet.
	StateSending
	// StateStreaming means events are arriving.
	StateStreaming
	// StateFinalizing means the stream ended and the result is being
	// committed to the store.
	StateFinalizing
	// StateError means the last turn failed; sends are accepted again.
	StateError
	// StateCancelled is a transient notification state: the turn was
	// cancelled by the user. The controller settles back at StateIdle
	// once the cancellation has been surfaced.
	StateCancelled
)

// String returns the state name for status displays.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateError:
		return "error"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when a send arrives while a turn is in flight.
var ErrBusy = errors.New("session: a request is already in flight")

// ErrTooShort is returned when a manual summary is requested before the
// conversation has enough messages.
var ErrTooShort = errors.New("session: conversation too short to summarize")

// titleTimeout bounds the asynchronous title-generation request.
const titleTimeout = 30 * time.Second

// toolResultPreviewLen caps the tool result text handed to sinks. Results can
// carry whole files; sinks only ever render a short excerpt.
const toolResultPreviewLen = 500

// cancelNotifyTimeout bounds the best-effort cancel notification to the
// backend.
const cancelNotifyTimeout = 2 * time.Second

// summarizePrompt asks for the condensed form used by both manual
// summaries and automatic compaction.
const summarizePrompt = "Condense our conversation so far into 2-3 short paragraphs. " +
	"Keep decisions, open questions, and any code or file names that matter. " +
	"Reply with the summary only."

// titlePrompt asks for a short display title for the conversation.
const titlePrompt = "Write a short title (at most 40 characters) for this conversation. " +
	"Reply with the title only, no quotes."

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives one conversation's turns. All mutation of the store
// happens on the goroutine running Send/Regenerate/Summarize; the mutex
// only guards the state flag and the cancel hook, which Cancel touches
// from another goroutine.
type Controller struct {
	store   *store.Store
	backend Backend
	budget  *token.Budget
	sink    Sink

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc

	background sync.WaitGroup
}

// NewController wires the controller to its collaborators. A nil sink is
// replaced with NopSink.
func NewController(st *store.Store, be Backend, budget *token.Budget, sink Sink) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	if budget == nil {
		budget = token.NewBudget(0)
	}
	return &Controller{
		store:   st,
		backend: be,
		budget:  budget,
		sink:    sink,
		state:   StateIdle,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Streaming reports whether a turn is in flight. Callers must check this
// before initiating a send, fork, or delete of the active conversation.
func (c *Controller) Streaming() bool {
	switch c.State() {
	case StateSending, StateStreaming, StateFinalizing:
		return true
	}
	return false
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.sink.StateChanged(s)
}

// begin claims the in-flight slot. Returns false when a turn is already
// running.
func (c *Controller) begin(cancel context.CancelFunc) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateSending, StateStreaming, StateFinalizing:
		return false
	}
	c.state = StateSending
	c.cancel = cancel
	return true
}

// Cancel aborts the in-flight turn. Safe to call from any goroutine; a
// no-op when nothing is streaming. The backend is notified best-effort;
// tearing down the local stream is what actually stops the turn.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		// The notify POST can stall on a wedged backend; keep the
		// caller responsive.
		c.background.Add(1)
		go func() {
			defer c.background.Done()
			ctx, done := context.WithTimeout(context.Background(), cancelNotifyTimeout)
			defer done()
			c.backend.Cancel(ctx)
		}()
	}
}

// Wait blocks until background work (title generation) has finished.
func (c *Controller) Wait() {
	c.background.Wait()
}

// =============================================================================
// SEND
// =============================================================================

// Send runs one full turn: append the user message, stream the reply,
// finalize. Blocks until the turn reaches a terminal state; UIs run it on
// their own goroutine and observe progress through the Sink.
func (c *Controller) Send(ctx context.Context, content string) error {
	turnCtx, cancel := context.WithCancel(ctx)
	if !c.begin(cancel) {
		cancel()
		return ErrBusy
	}

	conv := c.store.Current()
	conv.Append(model.NewUserMessage(content))
	c.checkBudget(conv)
	c.sink.StateChanged(StateSending)

	return c.runTurn(turnCtx, conv)
}

// Regenerate pops the trailing assistant reply (or replies) and re-issues
// the last user message. Returns ErrBusy while streaming and nil without
// effect when there is nothing to regenerate.
func (c *Controller) Regenerate(ctx context.Context) error {
	turnCtx, cancel := context.WithCancel(ctx)
	if !c.begin(cancel) {
		cancel()
		return ErrBusy
	}

	target := c.store.RegenerateTarget()
	if target == nil {
		c.mu.Lock()
		c.state = StateIdle
		c.cancel = nil
		c.mu.Unlock()
		cancel()
		return nil
	}
	c.sink.StateChanged(StateSending)

	return c.runTurn(turnCtx, c.store.Current())
}

// runTurn streams one response for the conversation's current log and
// finalizes it. The in-flight slot is already claimed.
func (c *Controller) runTurn(ctx context.Context, conv *model.Conversation) error {
	defer func() {
		c.mu.Lock()
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		c.mu.Unlock()
	}()

	es, err := c.backend.ChatStream(ctx, conv.Messages)
	if err != nil {
		c.setState(StateError)
		c.sink.Failed(err, "")
		return err
	}
	defer es.Close()

	c.setState(StateStreaming)

	var (
		acc   []byte
		tools toolStack
	)
	for {
		ev, err := es.Next()
		if err == io.EOF {
			return c.finalize(ctx, conv, string(acc), false)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return c.finalize(ctx, conv, string(acc), true)
			}
			c.setState(StateError)
			c.sink.Failed(err, string(acc))
			return err
		}

		switch ev.Type {
		case stream.EventContent:
			acc = append(acc, ev.Content...)
			c.sink.AssistantDelta(string(acc))
		case stream.EventToolCall:
			idx := tools.push(ev.Name, ev.Args)
			c.sink.ToolStarted(idx, ev.Name, ev.Args)
		case stream.EventToolResult:
			if call, ok := tools.resolve(); ok {
				c.sink.ToolResolved(call.index, call.name,
					model.TruncateRunes(ev.Result, toolResultPreviewLen))
			} else {
				log.Debug("session: tool result with no open call: %s", ev.Name)
			}
		case stream.EventUsage:
			conv.Tokens.Add(model.TokenUsage{
				Prompt:     ev.Usage.PromptTokens,
				Completion: ev.Usage.CompletionTokens,
				Total:      ev.Usage.TotalTokens,
			})
			c.sink.UsageUpdated(conv.Tokens)
		case stream.EventError:
			c.setState(StateError)
			err := errors.New(ev.Content)
			c.sink.Failed(err, string(acc))
			return err
		case stream.EventDone:
			return c.finalize(ctx, conv, string(acc), false)
		}
	}
}

// finalize commits the accumulated reply, runs the post-turn checks, and
// returns the controller to an accepting state.
func (c *Controller) finalize(ctx context.Context, conv *model.Conversation, content string, cancelled bool) error {
	c.setState(StateFinalizing)

	var msg *model.Message
	if content != "" {
		msg = model.NewAssistantMessage(content)
		conv.Append(msg)
	}

	firstExchange := len(conv.Messages) == 2 && msg != nil

	if !cancelled {
		c.autoSummarize(ctx, conv)
	}
	c.store.Save()

	if firstExchange {
		c.spawnTitleGeneration(conv)
	}

	if cancelled {
		c.setState(StateCancelled)
		c.sink.Cancelled(content)
		c.setState(StateIdle)
	} else {
		c.setState(StateIdle)
		c.sink.Finished(msg)
	}
	return nil
}

func (c *Controller) checkBudget(conv *model.Conversation) {
	if level := c.budget.Level(conv); level != token.LevelNone {
		c.sink.BudgetWarning(level, c.budget.PercentUsed(conv))
	}
}

// =============================================================================
// SUMMARIZATION
// =============================================================================

// Summarize condenses the whole conversation into the two-entry summary
// form. Refused below the minimum message count and while streaming.
func (c *Controller) Summarize(ctx context.Context) error {
	if c.Streaming() {
		return ErrBusy
	}
	if !c.store.CanSummarize() {
		return ErrTooShort
	}

	summary, err := c.requestSummary(ctx, c.store.Current())
	if err != nil {
		return err
	}
	c.store.ApplySummary(summary)
	return nil
}

// autoSummarize compacts the conversation when it has grown past the
// budget trigger. Runs once per completed turn, never mid-stream. Best
// effort: a failed summary leaves the log untouched.
func (c *Controller) autoSummarize(ctx context.Context, conv *model.Conversation) {
	if !c.budget.ShouldSummarize(conv) {
		return
	}
	summary, err := c.requestSummary(ctx, conv)
	if err != nil {
		log.Warn("session: auto-summarize failed: %v", err)
		return
	}
	c.store.Compact(summary, token.SummarizeKeepRecent)
}

func (c *Controller) requestSummary(ctx context.Context, conv *model.Conversation) (string, error) {
	msgs := append(append([]*model.Message{}, conv.Messages...),
		model.NewUserMessage(summarizePrompt))
	return c.backend.Complete(ctx, msgs)
}

// =============================================================================
// TITLE GENERATION
// =============================================================================

// spawnTitleGeneration fires a best-effort background request for a
// better conversation title after the first exchange. Its outcome never
// affects the turn that triggered it.
func (c *Controller) spawnTitleGeneration(conv *model.Conversation) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
		defer cancel()

		msgs := append(append([]*model.Message{}, conv.Messages...),
			model.NewUserMessage(titlePrompt))
		title, err := c.backend.Complete(ctx, msgs)
		if err != nil {
			log.Debug("session: title generation failed: %v", err)
			return
		}
		if title == "" {
			return
		}
		conv.SetTitle(title)
		c.store.Save()
		c.sink.TitleChanged(conv.GetTitle())
	}()
}

// =============================================================================
// TOOL CORRELATION
// =============================================================================

type toolCall struct {
	index int
	name  string
	args  string
}

// toolStack correlates tool results to calls: a result resolves the most
// recently opened unresolved call.
type toolStack struct {
	open []toolCall
	next int
}

func (s *toolStack) push(name, args string) int {
	call := toolCall{index: s.next, name: name, args: args}
	s.next++
	s.open = append(s.open, call)
	return call.index
}

func (s *toolStack) resolve() (toolCall, bool) {
	if len(s.open) == 0 {
		return toolCall{}, false
	}
	call := s.open[len(s.open)-1]
	s.open = s.open[:len(s.open)-1]
	return call, true
}
