// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestComputeModes(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		mode     Mode
		adds     int
		dels     int
	}{
		{"create", "", "a\nb\n", ModeCreate, 2, 0},
		{"delete", "a\nb\n", "", ModeDelete, 0, 2},
		{"modify", "a\nb\nc\n", "a\nx\nc\n", ModeModify, 1, 1},
		{"no change", "a\nb\n", "a\nb\n", ModeModify, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Compute("f.txt", tt.old, tt.new)
			if e.Mode != tt.mode {
				t.Errorf("Mode = %s, want %s", e.Mode, tt.mode)
			}
			if e.Additions != tt.adds || e.Deletions != tt.dels {
				t.Errorf("stats = +%d -%d, want +%d -%d", e.Additions, e.Deletions, tt.adds, tt.dels)
			}
		})
	}
}

func TestComputeHunkLineNumbers(t *testing.T) {
	oldSrc := "one\ntwo\nthree\nfour\nfive\nsix\nseven\neight\nnine\nten\n"
	newSrc := "one\ntwo\nthree\nfour\nfive\nSIX\nseven\neight\nnine\nten\n"

	e := Compute("f.txt", oldSrc, newSrc)
	if len(e.Hunks) != 1 {
		t.Fatalf("hunks = %d, want 1", len(e.Hunks))
	}
	h := e.Hunks[0]
	// Change at line 6 with 3 context lines each side.
	if h.OldStart != 3 || h.NewStart != 3 {
		t.Errorf("starts = -%d +%d, want -3 +3", h.OldStart, h.NewStart)
	}
	if h.OldCount != 7 || h.NewCount != 7 {
		t.Errorf("counts = -%d +%d, want -7 +7", h.OldCount, h.NewCount)
	}
}

func TestComputeSeparateHunks(t *testing.T) {
	var oldLines, newLines []string
	for i := 0; i < 30; i++ {
		oldLines = append(oldLines, "same")
		newLines = append(newLines, "same")
	}
	oldLines[2], newLines[2] = "old-a", "new-a"
	oldLines[25], newLines[25] = "old-b", "new-b"

	e := Compute("f.txt", strings.Join(oldLines, "\n"), strings.Join(newLines, "\n"))
	if len(e.Hunks) != 2 {
		t.Fatalf("hunks = %d, want 2", len(e.Hunks))
	}
}

func TestComputeMergesTouchingHunks(t *testing.T) {
	old := "a\nb\nc\nd\ne\nf\ng\n"
	new := "A\nb\nc\nd\ne\nf\nG\n"

	// Changes at lines 1 and 7: context windows overlap, one hunk.
	e := Compute("f.txt", old, new)
	if len(e.Hunks) != 1 {
		t.Fatalf("hunks = %d, want 1", len(e.Hunks))
	}
}

func TestUnifiedFormat(t *testing.T) {
	e := Compute("main.go", "a\nb\nc\n", "a\nx\nc\n")
	got := e.Unified()

	if !strings.HasPrefix(got, "--- a/main.go\n+++ b/main.go\n") {
		t.Errorf("missing header:\n%s", got)
	}
	if !strings.Contains(got, "-b\n") || !strings.Contains(got, "+x\n") {
		t.Errorf("missing change lines:\n%s", got)
	}
	if !strings.Contains(got, "@@ -1,3 +1,3 @@") {
		t.Errorf("hunk header wrong:\n%s", got)
	}
}

func TestSummary(t *testing.T) {
	e := Compute("f.txt", "a\nb\n", "a\nc\nd\n")
	got := e.Summary()
	if got != "modify +2 -1" {
		t.Errorf("Summary = %q", got)
	}
}

func TestHighlightFallsBackToPlain(t *testing.T) {
	e := Compute("f.txt", "a\n", "b\n")
	got := e.HighlightUnified("monokai")
	if got == "" {
		t.Fatal("empty highlight output")
	}
	// Whatever the styling, the payload must survive.
	if !strings.Contains(stripANSI(got), "+b") {
		t.Errorf("highlighted output lost content:\n%q", got)
	}
}

func stripANSI(s string) string {
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

// =============================================================================
// REVIEW QUEUE
// =============================================================================

type fakeGate struct {
	approved []int
	rejected []int
	err      error
}

func (g *fakeGate) Approve(_ context.Context, index int) error {
	if g.err != nil {
		return g.err
	}
	g.approved = append(g.approved, index)
	return nil
}

func (g *fakeGate) Reject(_ context.Context, index int) error {
	if g.err != nil {
		return g.err
	}
	g.rejected = append(g.rejected, index)
	return nil
}

func TestQueueApproveReject(t *testing.T) {
	gate := &fakeGate{}
	q := NewQueue(gate)
	q.Add(0, Compute("a.go", "", "x\n"))
	q.Add(1, Compute("b.go", "", "y\n"))

	if err := q.Approve(context.Background(), 0); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := q.Reject(context.Background(), 1); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if len(gate.approved) != 1 || gate.approved[0] != 0 {
		t.Errorf("approved = %v", gate.approved)
	}
	if len(gate.rejected) != 1 || gate.rejected[0] != 1 {
		t.Errorf("rejected = %v", gate.rejected)
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}

func TestQueueUnknownIndex(t *testing.T) {
	q := NewQueue(&fakeGate{})
	if err := q.Approve(context.Background(), 7); !errors.Is(err, ErrNoPending) {
		t.Errorf("err = %v, want ErrNoPending", err)
	}
}

func TestQueueKeepsEntryOnGateFailure(t *testing.T) {
	gate := &fakeGate{err: errors.New("backend down")}
	q := NewQueue(gate)
	q.Add(0, Compute("a.go", "", "x\n"))

	if err := q.Approve(context.Background(), 0); err == nil {
		t.Fatal("expected gate error")
	}
	// Still pending, so the user can retry.
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue(&fakeGate{})
	q.Add(0, Compute("a.go", "", "x\n"))
	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}
