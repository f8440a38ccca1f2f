// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// statusbar.go - Bottom status bar for the chat view.

package components

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/tetsu-tui/internal/model"
	"github.com/jeranaias/tetsu-tui/internal/token"
	"github.com/jeranaias/tetsu-tui/internal/ui/styles"
)

// StatusBarData carries everything the status bar displays.
type StatusBarData struct {
	State     string
	Model     string
	Usage     model.TokenUsage
	Percent   int
	Level     token.Level
	ShowUsage bool
}

// RenderStatusBar renders the one-line status bar at the given width.
func RenderStatusBar(theme *styles.Theme, data StatusBarData, width int) string {
	left := theme.StatusState.Render(data.State) + "  " +
		theme.StatusModel.Render(data.Model)

	var right string
	if data.ShowUsage {
		budget := fmt.Sprintf("%d%%", data.Percent)
		switch data.Level {
		case token.LevelHard:
			budget = theme.BudgetHard.Render(budget + " !")
		case token.LevelSoft:
			budget = theme.BudgetSoft.Render(budget)
		default:
			budget = theme.BudgetOK.Render(budget)
		}
		right = theme.StatusTokens.Render(fmt.Sprintf("%d tok ", data.Usage.Total)) + budget
	}

	gap := width - runewidth.StringWidth(stripForWidth(left)) - runewidth.StringWidth(stripForWidth(right)) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// RenderShortcuts renders the help hint line under the input.
func RenderShortcuts(theme *styles.Theme, pairs [][2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, theme.ShortcutKey.Render(p[0])+" "+theme.ShortcutDesc.Render(p[1]))
	}
	return strings.Join(parts, theme.ShortcutDesc.Render("  "))
}

// stripForWidth removes ANSI escape sequences for width math.
func stripForWidth(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == 0x1b:
			inEscape = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
