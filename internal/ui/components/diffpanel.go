// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// diffpanel.go - Pending edit review panel.

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/tetsu-tui/internal/diff"
	"github.com/jeranaias/tetsu-tui/internal/ui/styles"
)

// maxDiffPanelLines bounds how much of a large edit the panel shows.
const maxDiffPanelLines = 24

// RenderDiffPanel renders a pending edit awaiting approval.
func RenderDiffPanel(theme *styles.Theme, pending *diff.Pending, width int) string {
	edit := pending.Edit

	var sb strings.Builder
	sb.WriteString(theme.DiffHeader.Render(
		fmt.Sprintf("Edit #%d  %s  %s", pending.Index, edit.Path, edit.Summary())))
	sb.WriteString("\n\n")

	lines := 0
	for _, hunk := range edit.Hunks {
		if lines >= maxDiffPanelLines {
			break
		}
		sb.WriteString(theme.DiffContext.Render(
			fmt.Sprintf("@@ -%d,%d +%d,%d @@", hunk.OldStart, hunk.OldCount, hunk.NewStart, hunk.NewCount)))
		sb.WriteString("\n")
		lines++

		for _, line := range hunk.Lines {
			if lines >= maxDiffPanelLines {
				sb.WriteString(theme.DiffContext.Render("..."))
				sb.WriteString("\n")
				break
			}
			text := line.Kind.Prefix() + line.Content
			switch line.Kind {
			case diff.Added:
				sb.WriteString(theme.DiffAdded.Render(text))
			case diff.Removed:
				sb.WriteString(theme.DiffRemoved.Render(text))
			default:
				sb.WriteString(theme.DiffContext.Render(text))
			}
			sb.WriteString("\n")
			lines++
		}
	}

	sb.WriteString("\n")
	sb.WriteString(theme.ListItemDetail.Render("a approve  x reject  esc later"))

	box := theme.DiffBox
	if width > 0 {
		box = box.Width(width)
	}
	return box.Render(sb.String())
}
