// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/jeranaias/tetsu-tui/internal/model"
)

func sampleConversation() *model.Conversation {
	conv := model.NewConversation()
	conv.Append(model.NewUserMessage("how do goroutines work?"))
	conv.Append(model.NewAssistantMessage("They are lightweight threads."))
	conv.Tokens.Add(model.TokenUsage{Prompt: 10, Completion: 20, Total: 30})
	conv.Pin("lightweight threads")
	return conv
}

func TestMarkdownExport(t *testing.T) {
	conv := sampleConversation()
	out, err := NewMarkdownExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"title: how do goroutines work?",
		"tokens: 30",
		"### User",
		"### Assistant",
		"They are lightweight threads.",
		"## Pinned",
		"> lightweight threads",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownExportWithoutMetadata(t *testing.T) {
	conv := sampleConversation()
	out, err := NewMarkdownExporter(&Options{}).Export(conv)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.HasPrefix(string(out), "---\n") {
		t.Error("frontmatter present despite IncludeMetadata=false")
	}
}

func TestMarkdownExportEmptyConversation(t *testing.T) {
	if _, err := NewMarkdownExporter(nil).Export(model.NewConversation()); err == nil {
		t.Error("expected error for empty conversation")
	}
}

func TestJSONExportRoundTrips(t *testing.T) {
	conv := sampleConversation()
	out, err := NewJSONExporter(nil).Export(conv)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var envelope struct {
		Generator    string              `json:"generator"`
		Conversation *model.Conversation `json:"conversation"`
	}
	if err := json.Unmarshal(out, &envelope); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if envelope.Generator != "tetsu-tui" {
		t.Errorf("generator = %q", envelope.Generator)
	}
	if envelope.Conversation.ID != conv.ID {
		t.Errorf("id = %q, want %q", envelope.Conversation.ID, conv.ID)
	}
	if len(envelope.Conversation.Messages) != 2 {
		t.Errorf("messages = %d", len(envelope.Conversation.Messages))
	}
}

func TestToFileWritesMarkdown(t *testing.T) {
	dir := t.TempDir()
	conv := sampleConversation()

	path, err := ToFile(conv, "markdown", &Options{OutputDir: dir, IncludeMetadata: true})
	if err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "goroutines") {
		t.Error("exported file missing content")
	}
}

func TestToFileRejectsUnknownFormat(t *testing.T) {
	if _, err := ToFile(sampleConversation(), "pdf", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"how do goroutines work?", "how_do_goroutines_work"},
		{"", "untitled"},
		{"???", "untitled"},
		{"Fix: bug #42 (urgent)", "fix_bug_42_urgent"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
