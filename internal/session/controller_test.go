// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/store"
	"github.com/jeranaias/tetsu-tui/internal/stream"
	"github.com/jeranaias/tetsu-tui/internal/token"
)

// =============================================================================
// FAKES
// =============================================================================

// scriptedStream replays a fixed event sequence. With block set it then
// parks until the request context is cancelled, like a live connection.
type scriptedStream struct {
	ctx    context.Context
	events []stream.Event
	then   error
	block  bool
	pos    int
}

func (s *scriptedStream) Next() (stream.Event, error) {
	if s.pos < len(s.events) {
		ev := s.events[s.pos]
		s.pos++
		return ev, nil
	}
	if s.block {
		<-s.ctx.Done()
		return stream.Event{}, s.ctx.Err()
	}
	if s.then != nil {
		return stream.Event{}, s.then
	}
	return stream.Event{}, io.EOF
}

func (s *scriptedStream) Close() error { return nil }

type fakeBackend struct {
	mu            sync.Mutex
	events        []stream.Event
	block         bool
	streamErr     error
	completeReply string
	completeErr   error
	completeCalls int
	cancelled     bool
}

func (b *fakeBackend) ChatStream(ctx context.Context, msgs []*model.Message) (EventStream, error) {
	if b.streamErr != nil {
		return nil, b.streamErr
	}
	return &scriptedStream{ctx: ctx, events: b.events, block: b.block}, nil
}

func (b *fakeBackend) Complete(ctx context.Context, msgs []*model.Message) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completeCalls++
	return b.completeReply, b.completeErr
}

func (b *fakeBackend) Cancel(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelled = true
}

// recordSink captures notifications; safe for the title goroutine.
type recordSink struct {
	NopSink

	mu        sync.Mutex
	deltas    []string
	deltaCh   chan string
	tools     []string
	finished  *model.Message
	finishedN int
	failed    error
	partial   string
	cancelled *string
	titles    []string
	warnings  []token.Level
	states    []State
}

func (r *recordSink) StateChanged(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recordSink) sawState(want State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.states {
		if s == want {
			return true
		}
	}
	return false
}

func newRecordSink() *recordSink {
	return &recordSink{deltaCh: make(chan string, 64)}
}

func (r *recordSink) AssistantDelta(acc string) {
	r.mu.Lock()
	r.deltas = append(r.deltas, acc)
	r.mu.Unlock()
	select {
	case r.deltaCh <- acc:
	default:
	}
}

func (r *recordSink) ToolStarted(index int, name, args string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = append(r.tools, "start:"+name)
}

func (r *recordSink) ToolResolved(index int, name, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = append(r.tools, "resolve:"+name)
}

func (r *recordSink) BudgetWarning(level token.Level, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, level)
}

func (r *recordSink) TitleChanged(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
}

func (r *recordSink) Finished(msg *model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = msg
	r.finishedN++
}

func (r *recordSink) Failed(err error, partial string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = err
	r.partial = partial
}

func (r *recordSink) Cancelled(partial string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = &partial
}

func contentEvents(chunks ...string) []stream.Event {
	var evs []stream.Event
	for _, c := range chunks {
		evs = append(evs, stream.Event{Type: stream.EventContent, Content: c})
	}
	return evs
}

func newTestController(be *fakeBackend, sink Sink) (*Controller, *store.Store) {
	st := store.New(nil)
	return NewController(st, be, token.NewBudget(0), sink), st
}

// =============================================================================
// SEND
// =============================================================================

func TestSendAccumulatesDeltas(t *testing.T) {
	be := &fakeBackend{events: contentEvents("Hi", " there")}
	sink := newRecordSink()
	ctrl, st := newTestController(be, sink)

	if err := ctrl.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := st.Current().Messages
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2", len(msgs))
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content != "Hi there" {
		t.Errorf("assistant message = %+v", msgs[1])
	}
	if sink.finished == nil || sink.finished.Content != "Hi there" {
		t.Errorf("Finished msg = %+v", sink.finished)
	}
	// Each delta carries the full accumulator.
	if len(sink.deltas) != 2 || sink.deltas[0] != "Hi" || sink.deltas[1] != "Hi there" {
		t.Errorf("deltas = %v", sink.deltas)
	}
	if ctrl.State() != StateIdle {
		t.Errorf("state = %v, want idle", ctrl.State())
	}
}

func TestSendSetsTitleBeforeStreaming(t *testing.T) {
	be := &fakeBackend{events: contentEvents("sure")}
	ctrl, st := newTestController(be, nil)

	if err := ctrl.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	ctrl.Wait()

	// The first user message fixes the display title immediately.
	if got := st.Current().GetTitle(); got != "hello" {
		t.Errorf("title = %q, want %q", got, "hello")
	}
}

func TestSendEmptyReplyAppendsNothing(t *testing.T) {
	be := &fakeBackend{}
	sink := newRecordSink()
	ctrl, st := newTestController(be, sink)

	if err := ctrl.Send(context.Background(), "anyone there?"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if n := len(st.Current().Messages); n != 1 {
		t.Errorf("message count = %d, want 1", n)
	}
	if sink.finished != nil {
		t.Errorf("Finished msg = %+v, want nil", sink.finished)
	}
}

func TestSendRejectsReentry(t *testing.T) {
	be := &fakeBackend{events: contentEvents("thinking"), block: true}
	sink := newRecordSink()
	ctrl, _ := newTestController(be, sink)

	done := make(chan error, 1)
	go func() { done <- ctrl.Send(context.Background(), "first") }()
	<-sink.deltaCh

	if err := ctrl.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("re-entrant Send err = %v, want ErrBusy", err)
	}

	ctrl.Cancel()
	<-done
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestCancelKeepsPartialContent(t *testing.T) {
	be := &fakeBackend{events: contentEvents("Par"), block: true}
	sink := newRecordSink()
	ctrl, st := newTestController(be, sink)

	done := make(chan error, 1)
	go func() { done <- ctrl.Send(context.Background(), "question") }()
	<-sink.deltaCh // "Par" has arrived

	ctrl.Cancel()
	if err := <-done; err != nil {
		t.Fatalf("Send after cancel: %v", err)
	}

	if sink.cancelled == nil || *sink.cancelled != "Par" {
		t.Fatalf("Cancelled partial = %v", sink.cancelled)
	}
	if sink.failed != nil {
		t.Errorf("cancel reported as failure: %v", sink.failed)
	}
	last := st.Current().LastMessage()
	if last == nil || last.Role != model.RoleAssistant || last.Content != "Par" {
		t.Errorf("final message = %+v", last)
	}
	if ctrl.State() != StateIdle {
		t.Errorf("state = %v, want idle after cancel", ctrl.State())
	}
	if !sink.sawState(StateCancelled) {
		t.Error("cancelled state never surfaced to the sink")
	}
	ctrl.Wait() // drain the async cancel notification
	if !be.cancelled {
		t.Error("backend cancel signal not sent")
	}

	// The controller accepts the next send.
	be.block = false
	if err := ctrl.Send(context.Background(), "again"); err != nil {
		t.Errorf("Send after cancel: %v", err)
	}
}

func TestCancelWithNoContent(t *testing.T) {
	be := &fakeBackend{block: true}
	sink := newRecordSink()
	ctrl, st := newTestController(be, sink)

	done := make(chan error, 1)
	go func() { done <- ctrl.Send(context.Background(), "question") }()

	// Give the turn a moment to claim the slot and start streaming.
	for i := 0; i < 100 && !ctrl.Streaming(); i++ {
		time.Sleep(time.Millisecond)
	}
	ctrl.Cancel()
	<-done

	if sink.cancelled == nil || *sink.cancelled != "" {
		t.Fatalf("Cancelled partial = %v, want empty", sink.cancelled)
	}
	// Nothing accumulated, so nothing is appended.
	if n := len(st.Current().Messages); n != 1 {
		t.Errorf("message count = %d, want 1", n)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestTransportFailureBeforeStream(t *testing.T) {
	wantErr := errors.New("connection refused")
	be := &fakeBackend{streamErr: wantErr}
	sink := newRecordSink()
	ctrl, st := newTestController(be, sink)

	if err := ctrl.Send(context.Background(), "hi"); !errors.Is(err, wantErr) {
		t.Fatalf("Send err = %v, want %v", err, wantErr)
	}

	if !errors.Is(sink.failed, wantErr) {
		t.Errorf("Failed err = %v", sink.failed)
	}
	// The user message stays in the log for retry.
	if n := len(st.Current().Messages); n != 1 {
		t.Errorf("message count = %d, want 1", n)
	}
	if ctrl.State() != StateError {
		t.Errorf("state = %v, want error", ctrl.State())
	}

	// Errors never lock the controller out.
	be.streamErr = nil
	be.events = contentEvents("recovered")
	if err := ctrl.Send(context.Background(), "retry"); err != nil {
		t.Errorf("Send after error: %v", err)
	}
}

func TestErrorEventRetainsPartial(t *testing.T) {
	be := &fakeBackend{events: []stream.Event{
		{Type: stream.EventContent, Content: "half an ans"},
		{Type: stream.EventError, Content: "upstream exploded"},
	}}
	sink := newRecordSink()
	ctrl, st := newTestController(be, sink)

	err := ctrl.Send(context.Background(), "hi")
	if err == nil || err.Error() != "upstream exploded" {
		t.Fatalf("Send err = %v", err)
	}

	if sink.partial != "half an ans" {
		t.Errorf("Failed partial = %q", sink.partial)
	}
	// Partial content is shown with the error, not committed to the log.
	if n := len(st.Current().Messages); n != 1 {
		t.Errorf("message count = %d, want 1", n)
	}
}

// =============================================================================
// TOOLS AND USAGE
// =============================================================================

func TestToolCorrelationIsStackOrdered(t *testing.T) {
	be := &fakeBackend{events: []stream.Event{
		{Type: stream.EventToolCall, Name: "outer", Args: "{}"},
		{Type: stream.EventToolCall, Name: "inner", Args: "{}"},
		{Type: stream.EventToolResult, Name: "inner", Result: "r1"},
		{Type: stream.EventToolResult, Name: "outer", Result: "r2"},
		{Type: stream.EventContent, Content: "done"},
	}}
	sink := newRecordSink()
	ctrl, _ := newTestController(be, sink)

	if err := ctrl.Send(context.Background(), "go"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := []string{"start:outer", "start:inner", "resolve:inner", "resolve:outer"}
	if len(sink.tools) != len(want) {
		t.Fatalf("tool events = %v", sink.tools)
	}
	for i, w := range want {
		if sink.tools[i] != w {
			t.Errorf("tool event %d = %q, want %q", i, sink.tools[i], w)
		}
	}
}

func TestUsageAccumulates(t *testing.T) {
	be := &fakeBackend{events: []stream.Event{
		{Type: stream.EventUsage, Usage: stream.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}},
		{Type: stream.EventContent, Content: "x"},
		{Type: stream.EventUsage, Usage: stream.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}},
	}}
	ctrl, st := newTestController(be, nil)

	if err := ctrl.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := st.Current().Tokens
	want := model.TokenUsage{Prompt: 11, Completion: 22, Total: 33}
	if got != want {
		t.Errorf("tokens = %+v, want %+v", got, want)
	}
}

// =============================================================================
// BUDGET AND SUMMARIES
// =============================================================================

func TestBudgetWarningOnSend(t *testing.T) {
	be := &fakeBackend{events: contentEvents("ok")}
	sink := newRecordSink()
	st := store.New(nil)
	st.Current().Tokens.Add(model.TokenUsage{Total: 95})
	ctrl := NewController(st, be, token.NewBudget(100), sink)

	// Hard warning fires but the send still goes through.
	if err := ctrl.Send(context.Background(), "more"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sink.warnings) != 1 || sink.warnings[0] != token.LevelHard {
		t.Errorf("warnings = %v", sink.warnings)
	}
}

func TestAutoSummarizeCompactsLog(t *testing.T) {
	be := &fakeBackend{
		events:        contentEvents("reply"),
		completeReply: "earlier discussion condensed",
	}
	st := store.New(nil)
	for i := 0; i < 5; i++ {
		st.Append(model.NewUserMessage("padding"))
	}
	ctrl := NewController(st, be, token.NewBudget(100), nil)

	// Streamed usage pushes the conversation past the trigger.
	be.events = append(be.events,
		stream.Event{Type: stream.EventUsage, Usage: stream.Usage{TotalTokens: 90}})

	if err := ctrl.Send(context.Background(), "one more"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := st.Current().Messages
	// Synthetic system summary plus the 4 most recent messages.
	if len(msgs) != 5 {
		t.Fatalf("message count = %d, want 5: %+v", len(msgs), msgs)
	}
	if msgs[0].Role != model.RoleSystem {
		t.Errorf("first role = %s, want system", msgs[0].Role)
	}
	if msgs[4].Content != "reply" {
		t.Errorf("last message = %q, want the new reply", msgs[4].Content)
	}
}

func TestManualSummarize(t *testing.T) {
	be := &fakeBackend{completeReply: "what we talked about"}
	ctrl, st := newTestController(be, nil)

	if err := ctrl.Summarize(context.Background()); !errors.Is(err, ErrTooShort) {
		t.Fatalf("Summarize on short log err = %v, want ErrTooShort", err)
	}

	for i := 0; i < 4; i++ {
		st.Append(model.NewUserMessage("m"))
	}
	if err := ctrl.Summarize(context.Background()); err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	msgs := st.Current().Messages
	if len(msgs) != 2 || msgs[0].Role != model.RoleSystem {
		t.Fatalf("messages = %+v", msgs)
	}
	if msgs[0].Content != "what we talked about" {
		t.Errorf("summary = %q", msgs[0].Content)
	}
}

// =============================================================================
// TITLE GENERATION
// =============================================================================

func TestTitleGenerationAfterFirstExchange(t *testing.T) {
	be := &fakeBackend{
		events:        contentEvents("hello back"),
		completeReply: "Greeting",
	}
	sink := newRecordSink()
	ctrl, st := newTestController(be, sink)

	if err := ctrl.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	ctrl.Wait()

	if got := st.Current().GetTitle(); got != "Greeting" {
		t.Errorf("title = %q, want %q", got, "Greeting")
	}
	if len(sink.titles) != 1 || sink.titles[0] != "Greeting" {
		t.Errorf("TitleChanged = %v", sink.titles)
	}
}

func TestTitleGenerationOnlyOnFirstExchange(t *testing.T) {
	be := &fakeBackend{events: contentEvents("sure")}
	ctrl, _ := newTestController(be, nil)

	if err := ctrl.Send(context.Background(), "one"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := ctrl.Send(context.Background(), "two"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	ctrl.Wait()

	be.mu.Lock()
	defer be.mu.Unlock()
	if be.completeCalls != 1 {
		t.Errorf("Complete calls = %d, want 1", be.completeCalls)
	}
}

// =============================================================================
// REGENERATE
// =============================================================================

func TestRegenerateReplacesTrailingAssistants(t *testing.T) {
	be := &fakeBackend{events: contentEvents("better answer")}
	ctrl, st := newTestController(be, nil)
	st.Append(model.NewUserMessage("question"))
	st.Append(model.NewAssistantMessage("meh"))
	st.Append(model.NewAssistantMessage("also meh"))

	if err := ctrl.Regenerate(context.Background()); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	msgs := st.Current().Messages
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2: %+v", len(msgs), msgs)
	}
	if msgs[0].Content != "question" || msgs[1].Content != "better answer" {
		t.Errorf("log = %q, %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestRegenerateNothingToDo(t *testing.T) {
	be := &fakeBackend{}
	ctrl, _ := newTestController(be, nil)

	if err := ctrl.Regenerate(context.Background()); err != nil {
		t.Errorf("Regenerate on empty log: %v", err)
	}
	if ctrl.State() != StateIdle {
		t.Errorf("state = %v, want idle", ctrl.State())
	}
}
