// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - Layout composition for the chat view.

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tetsu-tui/internal/ui/components"
)

// View renders the complete chat interface.
func (m Model) View() string {
	if !m.ready {
		return "starting tetsu..."
	}

	header := m.renderHeader()

	var main string
	switch m.mode {
	case modeList, modeFork:
		main = m.centerOverlay(m.list.View(m.theme, overlayWidth(m.width)))
	case modeDiff:
		if m.pending != nil {
			main = m.centerOverlay(components.RenderDiffPanel(m.theme, m.pending, overlayWidth(m.width)))
		} else {
			main = m.viewport.View()
		}
	case modeHelp:
		main = m.centerOverlay(m.renderHelp())
	default:
		main = m.viewport.View()
	}

	var sections []string
	sections = append(sections, header, main)

	if spin := m.spinner.View(m.theme); spin != "" {
		sections = append(sections, spin)
	}
	if m.warning != "" {
		sections = append(sections, m.theme.WarningText.Render("  "+m.warning))
	}
	if m.lastErr != nil {
		sections = append(sections, m.renderError())
	}

	sections = append(sections,
		m.theme.InputContainer.Width(m.width-2).Render(m.textarea.View()),
		m.renderShortcuts(),
		m.renderStatusBar(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	conv := m.store.Current()
	title := conv.Title
	if title == "" {
		title = "new conversation"
	}
	left := m.theme.HeaderTitle.Render("tetsu") + "  " +
		m.theme.HeaderSubtitle.Render(title)
	return m.theme.Header.Width(m.width).Render(left)
}

func (m Model) renderError() string {
	body := m.theme.ErrorTitle.Render("Turn failed") + "\n" +
		m.lastErr.Error()
	if m.partial != "" {
		body += "\n" + m.theme.MutedText.Render("partial reply retained, ctrl+y retries")
	}
	return m.theme.ErrorBox.Width(m.width - 4).Render(body)
}

func (m Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render("Keys"))
	sb.WriteString("\n\n")
	hints := [][2]string{
		{"enter", "send message"},
		{"esc", "cancel streaming reply"},
		{"ctrl+l", "conversation list (d deletes)"},
		{"ctrl+n", "new conversation"},
		{"ctrl+f", "fork a conversation"},
		{"ctrl+s", "summarize into a compact context"},
		{"ctrl+r", "regenerate last reply"},
		{"ctrl+y", "retry after an error"},
		{"ctrl+e", "export to markdown"},
		{"ctrl+q", "quit"},
	}
	for _, h := range hints {
		sb.WriteString("  ")
		sb.WriteString(m.theme.ShortcutKey.Render(h[0]))
		sb.WriteString(strings.Repeat(" ", 10-len(h[0])))
		sb.WriteString(m.theme.ShortcutDesc.Render(h[1]))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.theme.ShortcutDesc.Render("Slash commands: /new /list /fork [n] /summarize /regen /export /edits /quit"))
	return m.theme.OverlayBox.Render(sb.String())
}

func (m Model) renderShortcuts() string {
	pairs := [][2]string{
		{"enter", "send"},
		{"esc", "cancel"},
		{"C-l", "convos"},
		{"C-s", "summarize"},
		{"C-g", "help"},
		{"C-q", "quit"},
	}
	return "  " + components.RenderShortcuts(m.theme, pairs)
}

func (m Model) renderStatusBar() string {
	conv := m.store.Current()
	data := components.StatusBarData{
		State:     m.state.String(),
		Model:     m.cfg.Chat.Model,
		Usage:     m.usage,
		Percent:   m.budget.PercentUsed(conv),
		Level:     m.budget.Level(conv),
		ShowUsage: m.cfg.UI.ShowUsage,
	}
	return components.RenderStatusBar(m.theme, data, m.width)
}

// centerOverlay places an overlay in the viewport's area.
func (m Model) centerOverlay(content string) string {
	return lipgloss.Place(m.width, m.viewport.Height,
		lipgloss.Center, lipgloss.Center, content)
}

func overlayWidth(width int) int {
	w := width - 10
	if w > 76 {
		w = 76
	}
	if w < 30 {
		w = 30
	}
	return w
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport rebuilds the transcript. With follow set the view
// snaps to the bottom, tracking the streaming reply.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready || m.renderer == nil {
		return
	}

	conv := m.store.Current()

	var sb strings.Builder
	if len(conv.Messages) == 0 && m.streaming == "" {
		sb.WriteString(components.RenderWelcome(m.theme, m.cfg.Chat.Model))
	}

	for i, msg := range conv.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderer.Render(msg))
		sb.WriteString("\n")
	}

	for _, note := range m.toolNotes {
		sb.WriteString(note)
		sb.WriteString("\n")
	}

	if m.streaming != "" {
		sb.WriteString("\n")
		sb.WriteString(m.renderer.RenderStreaming(m.streaming))
		sb.WriteString("\n")
	}

	if m.partial != "" {
		sb.WriteString("\n")
		sb.WriteString(m.renderer.RenderStreaming(m.partial))
		sb.WriteString("\n")
		sb.WriteString(m.renderer.RenderPartialNote())
		sb.WriteString("\n")
	}

	m.viewport.SetContent(sb.String())
	if follow {
		m.viewport.GotoBottom()
	}
}
