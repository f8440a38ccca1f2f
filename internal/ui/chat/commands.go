// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Slash commands typed into the chat input.
//
// The command set mirrors the plain REPL so muscle memory transfers
// between the two surfaces.

package chat

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tetsu-tui/internal/ui/components"
)

// handleCommand executes a slash command from the input box.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := fields[0]
	rest := fields[1:]

	switch cmd {
	case "/help":
		m.mode = modeHelp
		return m, nil

	case "/new", "/clear":
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

	case "/list":
		m.mode = modeList
		m.list = components.NewConversationList("Conversations", m.store.List())
		return m, nil

	case "/fork":
		if m.streamingActive() {
			m.warning = "finish or cancel the reply first"
			return m, nil
		}
		// /fork N keeps the first N messages; bare /fork copies all.
		upto := -1
		if len(rest) > 0 {
			if n, err := strconv.Atoi(rest[0]); err == nil && n >= 0 {
				upto = n
			}
		}
		if _, err := m.store.Fork(m.store.Current().ID, upto); err == nil {
			m.store.Save()
			m.resetTurnState()
			m.usage = m.store.Current().Tokens
			m.refreshViewport(false)
		}
		return m, nil

	case "/summarize":
		return m, m.summarizeCmd()

	case "/regen":
		m.resetTurnState()
		return m, m.regenerateCmd()

	case "/export":
		format := "markdown"
		if len(rest) > 0 {
			format = rest[0]
		}
		return m, m.exportCmd(format)

	case "/edits":
		if pending := m.queue.Pending(); len(pending) > 0 {
			m.pending = pending[0]
			m.mode = modeDiff
		} else {
			m.warning = "no pending edits"
		}
		return m, nil

	case "/quit", "/exit":
		m.store.Save()
		return m, tea.Quit

	default:
		m.warning = "unknown command " + cmd
		return m, nil
	}
}
