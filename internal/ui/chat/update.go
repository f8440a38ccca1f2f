// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// update.go - Message handling for the chat view.

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	ctxmention "github.com/jeranaias/tetsu-tui/internal/context"
	"github.com/jeranaias/tetsu-tui/internal/diff"
	"github.com/jeranaias/tetsu-tui/internal/export"
	"github.com/jeranaias/tetsu-tui/internal/session"
	"github.com/jeranaias/tetsu-tui/internal/token"
	"github.com/jeranaias/tetsu-tui/internal/ui/components"
)

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	// ==========================================================================
	// SINK MESSAGES
	// ==========================================================================

	case stateChangedMsg:
		m.state = msg.state
		var cmd tea.Cmd
		if msg.state == session.StateSending {
			cmd = m.spinner.Start("Thinking")
		}
		if !m.streamingActive() {
			m.spinner.Stop()
		}
		return m, tea.Batch(cmd, m.sink.Wait())

	case assistantDeltaMsg:
		m.streaming = msg.accumulated
		m.spinner.Stop()
		m.refreshViewport(true)
		return m, m.sink.Wait()

	case toolStartedMsg:
		if m.toolNotePos == nil {
			m.toolNotePos = make(map[int]int)
		}
		m.toolNotePos[msg.index] = len(m.toolNotes)
		m.toolNotes = append(m.toolNotes, m.renderer.RenderToolNote(msg.name, false, ""))
		m.collectEdit(msg.index, msg.name, msg.args)
		m.refreshViewport(true)
		return m, m.sink.Wait()

	case toolResolvedMsg:
		note := m.renderer.RenderToolNote(msg.name, true, msg.result)
		if pos, ok := m.toolNotePos[msg.index]; ok && pos < len(m.toolNotes) {
			m.toolNotes[pos] = note
		} else {
			m.toolNotes = append(m.toolNotes, note)
		}
		m.refreshViewport(true)
		return m, m.sink.Wait()

	case usageMsg:
		m.usage = msg.usage
		return m, m.sink.Wait()

	case budgetWarningMsg:
		m.warning = fmt.Sprintf("context %d%% full", msg.percent)
		if msg.level == token.LevelHard {
			m.warning += ", summarize or fork to continue comfortably"
		}
		return m, m.sink.Wait()

	case titleChangedMsg:
		return m, m.sink.Wait()

	case finishedMsg:
		m.streaming = ""
		m.toolNotes = nil
		m.toolNotePos = nil
		m.spinner.Stop()
		m.refreshViewport(true)
		return m, m.sink.Wait()

	case failedMsg:
		m.lastErr = msg.err
		m.partial = msg.partial
		m.streaming = ""
		m.spinner.Stop()
		m.refreshViewport(true)
		return m, m.sink.Wait()

	case cancelledMsg:
		m.streaming = ""
		m.toolNotes = nil
		m.toolNotePos = nil
		m.spinner.Stop()
		if msg.partial == "" {
			m.warning = "Cancelled"
		}
		m.refreshViewport(true)
		return m, m.sink.Wait()

	case sendResultMsg:
		if errors.Is(msg.err, session.ErrBusy) {
			m.warning = "a reply is still streaming"
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

// updateComponents forwards unhandled messages to the focused widgets.
func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if cmd := m.spinner.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	chromeHeight := 2 + m.textarea.Height() + 4 // header, input box, hints, status
	vpHeight := m.height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(m.width - 4)
	m.renderer = components.NewMessageRenderer(m.theme, m.cfg.UI.Theme, m.width)
	m.refreshViewport(false)
	return m
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit works everywhere.
	if key.Matches(msg, m.keys.Quit) {
		m.store.Save()
		return m, tea.Quit
	}

	switch m.mode {
	case modeList, modeFork:
		return m.handleListKey(msg)
	case modeDiff:
		return m.handleDiffKey(msg)
	case modeHelp:
		if key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Help) {
			m.mode = modeChat
		}
		return m, nil
	}

	return m.handleChatKey(msg)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.streamingActive() {
			m.ctrl.Cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.textarea.Value())
		if text == "" {
			return m, nil
		}
		m.textarea.Reset()
		if strings.HasPrefix(text, "/") {
			return m.handleCommand(text)
		}
		return m.startSend(text)

	case key.Matches(msg, m.keys.List):
		m.mode = modeList
		m.list = components.NewConversationList("Conversations", m.store.List())
		return m, nil

	case key.Matches(msg, m.keys.Fork):
		if m.streamingActive() {
			m.warning = "finish or cancel the reply first"
			return m, nil
		}
		m.mode = modeFork
		m.list = components.NewConversationList("Fork which conversation?", m.store.List())
		return m, nil

	case key.Matches(msg, m.keys.NewConv):
		if m.streamingActive() {
			m.warning = "finish or cancel the reply first"
			return m, nil
		}
		m.store.NewConversation()
		m.store.Save()
		m.resetTurnState()
		m.usage = m.store.Current().Tokens
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.Summarize):
		return m, m.summarizeCmd()

	case key.Matches(msg, m.keys.Regenerate):
		m.resetTurnState()
		return m, m.regenerateCmd()

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd("markdown")

	case key.Matches(msg, m.keys.Retry):
		if m.lastErr != nil {
			m.resetTurnState()
			return m, m.regenerateRetryCmd()
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.list.MoveUp()
	case "down", "j":
		m.list.MoveDown()
	case "d":
		if m.streamingActive() {
			m.warning = "finish or cancel the reply first"
			m.mode = modeChat
			return m, nil
		}
		if m.mode == modeList {
			if item := m.list.Current(); item != nil {
				if err := m.store.DeleteConversation(item.ID); err == nil {
					m.store.Save()
					m.list = components.NewConversationList("Conversations", m.store.List())
					m.usage = m.store.Current().Tokens
					m.refreshViewport(false)
				}
			}
		}
	case "enter":
		if m.streamingActive() {
			m.warning = "finish or cancel the reply first"
			m.mode = modeChat
			return m, nil
		}
		item := m.list.Current()
		if item == nil {
			m.mode = modeChat
			return m, nil
		}
		if m.mode == modeFork {
			if _, err := m.store.Fork(item.ID, -1); err == nil {
				m.store.Save()
			}
		} else {
			m.store.LoadConversation(item.ID)
			m.store.Save()
		}
		m.mode = modeChat
		m.resetTurnState()
		m.usage = m.store.Current().Tokens
		m.refreshViewport(false)
	case "esc":
		m.mode = modeChat
	}
	return m, nil
}

func (m Model) handleDiffKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	queue := m.queue

	switch msg.String() {
	case "a":
		if m.pending != nil {
			index := m.pending.Index
			cmd = func() tea.Msg {
				queue.Approve(context.Background(), index)
				return nil
			}
		}
	case "x":
		if m.pending != nil {
			index := m.pending.Index
			cmd = func() tea.Msg {
				queue.Reject(context.Background(), index)
				return nil
			}
		}
	case "esc":
		// Leave the edit pending for later review.
	default:
		return m, nil
	}

	m.mode = modeChat
	m.pending = nil
	return m, cmd
}

// =============================================================================
// COMMANDS
// =============================================================================

// startSend clears per-turn state and launches the turn. Mention
// expansion does backend I/O, so the whole send runs in a command.
func (m Model) startSend(text string) (tea.Model, tea.Cmd) {
	m.resetTurnState()
	m.refreshViewport(true)

	ctrl := m.ctrl
	client := m.client
	return m, func() tea.Msg {
		ctx := context.Background()
		if ctxmention.HasMentions(text) {
			result := ctxmention.NewExpander(client).Expand(ctx, text)
			text = result.Expanded
		}
		return sendResultMsg{err: ctrl.Send(ctx, text)}
	}
}

func (m Model) summarizeCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return sendResultMsg{err: ctrl.Summarize(context.Background())}
	}
}

func (m Model) regenerateCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return sendResultMsg{err: ctrl.Regenerate(context.Background())}
	}
}

// regenerateRetryCmd retries after a failed turn. The failed turn never
// appended an assistant message, so the pending user message is still
// the last entry and Regenerate resends it.
func (m Model) regenerateRetryCmd() tea.Cmd {
	return m.regenerateCmd()
}

func (m Model) exportCmd(format string) tea.Cmd {
	conv := m.store.Current()
	return func() tea.Msg {
		export.ToFile(conv, format, export.DefaultOptions())
		return nil
	}
}

// =============================================================================
// EDIT COLLECTION
// =============================================================================

// editToolArgs is the argument shape of file-editing tools.
type editToolArgs struct {
	Path       string `json:"path"`
	OldContent string `json:"old_content"`
	NewContent string `json:"new_content"`
}

// collectEdit turns a file-editing tool call into a reviewable diff.
// Other tools stream through without review.
func (m *Model) collectEdit(index int, name, args string) {
	switch name {
	case "edit_file", "write_file", "create_file":
	default:
		return
	}

	var parsed editToolArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil || parsed.Path == "" {
		return
	}

	edit := diff.Compute(parsed.Path, parsed.OldContent, parsed.NewContent)
	m.queue.Add(index, edit)
	m.pending = &diff.Pending{Index: index, Edit: edit}
	m.mode = modeDiff
}
