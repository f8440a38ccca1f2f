// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// message.go - Message bubble rendering.

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/ui/styles"
)

// MessageRenderer renders conversation messages for the viewport.
// Assistant content goes through a markdown renderer; user and system
// content stays verbatim.
type MessageRenderer struct {
	theme    *styles.Theme
	markdown *glamour.TermRenderer
	width    int
}

// NewMessageRenderer builds a renderer for the given wrap width and
// glamour theme name. A nil markdown renderer (theme lookup failure)
// degrades to plain text.
func NewMessageRenderer(theme *styles.Theme, mdTheme string, width int) *MessageRenderer {
	r := &MessageRenderer{theme: theme, width: width}
	md, err := glamour.NewTermRenderer(
		glamour.WithStylePath(mdTheme),
		glamour.WithWordWrap(contentWidth(width)),
	)
	if err == nil {
		r.markdown = md
	}
	return r
}

// contentWidth leaves room for the bubble border and padding.
func contentWidth(width int) int {
	w := width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// Width returns the renderer's wrap width.
func (r *MessageRenderer) Width() int {
	return r.width
}

// Render renders a full message with its role header.
func (r *MessageRenderer) Render(msg *model.Message) string {
	var label, body string
	var bubble lipgloss.Style

	switch msg.Role {
	case model.RoleUser:
		label = "You"
		bubble = r.theme.UserBubble
		body = msg.Content
	case model.RoleAssistant:
		label = "Assistant"
		bubble = r.theme.AssistantBubble
		body = r.renderMarkdown(msg.Content)
	case model.RoleSystem:
		label = "Summary"
		bubble = r.theme.SystemBubble
		body = msg.Content
	default:
		label = string(msg.Role)
		bubble = r.theme.AssistantBubble
		body = msg.Content
	}

	header := r.theme.RoleLabel.Render(label) + " " +
		r.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	return header + "\n" + bubble.Width(contentWidth(r.width)).Render(body)
}

// RenderStreaming renders the in-progress assistant reply. Markdown is
// re-rendered from the whole accumulator every time since a later
// delta can close a construct an earlier render left open.
func (r *MessageRenderer) RenderStreaming(accumulated string) string {
	header := r.theme.RoleLabel.Render("Assistant") + " " +
		r.theme.Timestamp.Render("streaming")
	body := r.renderMarkdown(accumulated)
	return header + "\n" + r.theme.AssistantBubble.Width(contentWidth(r.width)).Render(body)
}

// toolNotePreviewLen bounds the result excerpt shown on a resolved tool
// note.
const toolNotePreviewLen = 80

// RenderToolNote renders a one-line tool activity notice. A resolved
// note carries a short excerpt of the tool's result.
func (r *MessageRenderer) RenderToolNote(name string, resolved bool, result string) string {
	state := "running"
	if resolved {
		state = "done"
	}
	note := fmt.Sprintf("  [tool] %s (%s)", name, state)
	if resolved && result != "" {
		note += " " + model.Preview(result, toolNotePreviewLen)
	}
	return r.theme.ToolNote.Render(note)
}

// RenderPartialNote marks retained partial content after a failure.
func (r *MessageRenderer) RenderPartialNote() string {
	return r.theme.PartialNote.Render("  (partial reply, press r to retry)")
}

func (r *MessageRenderer) renderMarkdown(content string) string {
	if r.markdown == nil || content == "" {
		return content
	}
	out, err := r.markdown.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
