// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"fmt"
	"strings"
)

// contextLines is how many unchanged lines surround each hunk.
const contextLines = 3

// =============================================================================
// LINE TYPES
// =============================================================================

// LineKind classifies one line of a diff.
type LineKind int

const (
	// Context is an unchanged line shown for orientation.
	Context LineKind = iota
	// Added is a line present only in the new content.
	Added
	// Removed is a line present only in the old content.
	Removed
)

// Prefix returns the unified-diff marker for the kind.
func (k LineKind) Prefix() string {
	switch k {
	case Added:
		return "+"
	case Removed:
		return "-"
	default:
		return " "
	}
}

// Line is one line of a computed diff. OldLine is 0 for added lines,
// NewLine is 0 for removed ones.
type Line struct {
	Kind    LineKind
	Content string
	OldLine int
	NewLine int
}

// Hunk is a contiguous run of changes plus its surrounding context.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []Line
}

// =============================================================================
// EDIT
// =============================================================================

// Mode describes what the edit does to the file.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeModify Mode = "modify"
	ModeDelete Mode = "delete"
)

// Edit is one proposed file change.
type Edit struct {
	Path       string
	OldContent string
	NewContent string
	Mode       Mode
	Hunks      []Hunk
	Additions  int
	Deletions  int
}

// Compute diffs old against new content line by line.
func Compute(path, oldContent, newContent string) *Edit {
	e := &Edit{
		Path:       path,
		OldContent: oldContent,
		NewContent: newContent,
		Mode:       ModeModify,
	}
	switch {
	case oldContent == "" && newContent != "":
		e.Mode = ModeCreate
	case oldContent != "" && newContent == "":
		e.Mode = ModeDelete
	}

	lines := diffLines(splitLines(oldContent), splitLines(newContent))
	for _, l := range lines {
		switch l.Kind {
		case Added:
			e.Additions++
		case Removed:
			e.Deletions++
		}
	}
	e.Hunks = buildHunks(lines)
	return e
}

// Summary returns a short description for list views, like
// "modify +3 -1".
func (e *Edit) Summary() string {
	parts := []string{string(e.Mode)}
	if e.Additions > 0 {
		parts = append(parts, fmt.Sprintf("+%d", e.Additions))
	}
	if e.Deletions > 0 {
		parts = append(parts, fmt.Sprintf("-%d", e.Deletions))
	}
	return strings.Join(parts, " ")
}

// Unified renders the edit in standard unified diff format.
func (e *Edit) Unified() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n", e.Path)
	fmt.Fprintf(&sb, "+++ b/%s\n", e.Path)
	for _, h := range e.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			sb.WriteString(l.Kind.Prefix())
			sb.WriteString(l.Content)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// =============================================================================
// COMPUTATION
// =============================================================================

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// diffLines walks both sides against their longest common subsequence.
func diffLines(oldLines, newLines []string) []Line {
	lcs := commonSubsequence(oldLines, newLines)

	var out []Line
	oi, ni, li := 0, 0, 0
	for oi < len(oldLines) || ni < len(newLines) {
		switch {
		case li < len(lcs) && oi < len(oldLines) && ni < len(newLines) &&
			oldLines[oi] == lcs[li] && newLines[ni] == lcs[li]:
			out = append(out, Line{Kind: Context, Content: oldLines[oi], OldLine: oi + 1, NewLine: ni + 1})
			oi, ni, li = oi+1, ni+1, li+1
		case oi < len(oldLines) && (li >= len(lcs) || oldLines[oi] != lcs[li]):
			out = append(out, Line{Kind: Removed, Content: oldLines[oi], OldLine: oi + 1})
			oi++
		default:
			out = append(out, Line{Kind: Added, Content: newLines[ni], NewLine: ni + 1})
			ni++
		}
	}
	return out
}

// commonSubsequence computes the LCS of two line slices by dynamic
// programming. Quadratic, fine for the file sizes tool calls propose.
func commonSubsequence(a, b []string) []string {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	lcs := make([]string, 0, dp[m][n])
	for i, j := m, n; i > 0 && j > 0; {
		switch {
		case a[i-1] == b[j-1]:
			lcs = append(lcs, a[i-1])
			i, j = i-1, j-1
		case dp[i-1][j] > dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	for l, r := 0, len(lcs)-1; l < r; l, r = l+1, r-1 {
		lcs[l], lcs[r] = lcs[r], lcs[l]
	}
	return lcs
}

// buildHunks groups changed lines into hunks, each padded with context
// and merged with its neighbor when their context windows touch.
func buildHunks(lines []Line) []Hunk {
	var changed []int
	for i, l := range lines {
		if l.Kind != Context {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	type span struct{ start, end int }
	var spans []span
	cur := span{
		start: maxInt(0, changed[0]-contextLines),
		end:   minInt(len(lines)-1, changed[0]+contextLines),
	}
	for _, idx := range changed[1:] {
		start := maxInt(0, idx-contextLines)
		if start <= cur.end+1 {
			cur.end = minInt(len(lines)-1, idx+contextLines)
			continue
		}
		spans = append(spans, cur)
		cur = span{start: start, end: minInt(len(lines)-1, idx+contextLines)}
	}
	spans = append(spans, cur)

	hunks := make([]Hunk, 0, len(spans))
	for _, sp := range spans {
		h := Hunk{}
		for _, l := range lines[sp.start : sp.end+1] {
			h.Lines = append(h.Lines, l)
			if l.OldLine > 0 {
				if h.OldStart == 0 {
					h.OldStart = l.OldLine
				}
				h.OldCount++
			}
			if l.NewLine > 0 {
				if h.NewStart == 0 {
					h.NewStart = l.NewLine
				}
				h.NewCount++
			}
		}
		hunks = append(hunks, h)
	}
	return hunks
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
