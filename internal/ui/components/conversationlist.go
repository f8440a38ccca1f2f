// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// conversationlist.go - Conversation picker overlay.

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/ui/styles"
)

// ConversationList is the selectable conversation picker shown over
// the chat view.
type ConversationList struct {
	Items    []model.Meta
	Selected int
	Title    string
}

// NewConversationList builds a picker over the given metas.
func NewConversationList(title string, items []model.Meta) ConversationList {
	return ConversationList{Items: items, Title: title}
}

// MoveUp moves the selection up, clamped at the top.
func (l *ConversationList) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
	}
}

// MoveDown moves the selection down, clamped at the bottom.
func (l *ConversationList) MoveDown() {
	if l.Selected < len(l.Items)-1 {
		l.Selected++
	}
}

// Current returns the selected meta, or nil when the list is empty.
func (l *ConversationList) Current() *model.Meta {
	if l.Selected < 0 || l.Selected >= len(l.Items) {
		return nil
	}
	return &l.Items[l.Selected]
}

// View renders the picker box.
func (l *ConversationList) View(theme *styles.Theme, width int) string {
	var sb strings.Builder
	sb.WriteString(theme.OverlayTitle.Render(l.Title))
	sb.WriteString("\n\n")

	if len(l.Items) == 0 {
		sb.WriteString(theme.ListItemDetail.Render("(empty)"))
	}

	for i, item := range l.Items {
		title := item.Title
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("%-40s", truncate(title, 40))
		detail := fmt.Sprintf(" %d msgs  %s", item.MessageCount, item.UpdatedAt.Format("Jan 2 15:04"))
		if item.ForkedFrom != "" {
			detail += "  fork"
		}

		if i == l.Selected {
			sb.WriteString(theme.ListItemSelected.Render(line))
		} else {
			sb.WriteString(theme.ListItem.Render(line))
		}
		sb.WriteString(theme.ListItemDetail.Render(detail))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(theme.ListItemDetail.Render("enter select  d delete  esc close"))

	box := theme.OverlayBox
	if width > 0 {
		box = box.Width(width)
	}
	return box.Render(sb.String())
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
