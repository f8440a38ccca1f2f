// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// welcome.go - Empty-conversation welcome screen.

package components

import (
	"strings"

	"github.com/jeranaias/tetsu-tui/internal/ui/styles"
)

// RenderWelcome renders the hint screen shown before the first message.
func RenderWelcome(theme *styles.Theme, modelName string) string {
	var sb strings.Builder
	sb.WriteString(theme.HeaderTitle.Render("tetsu"))
	sb.WriteString("\n")
	sb.WriteString(theme.HeaderSubtitle.Render("streaming chat with " + modelName))
	sb.WriteString("\n\n")

	hints := [][2]string{
		{"enter", "send message"},
		{"@file:path", "attach a file"},
		{"ctrl+l", "conversation list"},
		{"ctrl+f", "fork conversation"},
		{"ctrl+s", "summarize"},
		{"ctrl+r", "regenerate last reply"},
		{"esc", "cancel a streaming reply"},
		{"ctrl+q", "quit"},
	}
	for _, h := range hints {
		sb.WriteString("  ")
		sb.WriteString(theme.ShortcutKey.Render(h[0]))
		sb.WriteString(strings.Repeat(" ", 14-len(h[0])))
		sb.WriteString(theme.ShortcutDesc.Render(h[1]))
		sb.WriteString("\n")
	}
	return sb.String()
}
