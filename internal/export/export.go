// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/tetsu-tui/internal/model"
)

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter renders a conversation in one target format.
type Exporter interface {
	Export(conv *model.Conversation) ([]byte, error)
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// IncludeMetadata adds the frontmatter/header block.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns the defaults used by the TUI's export command.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// =============================================================================
// FILE EXPORT
// =============================================================================

// ToFile renders conv in the named format ("markdown", "md", "json") and
// writes it under opts.OutputDir. Returns the output path.
func ToFile(conv *model.Conversation, format string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	var exporter Exporter
	switch format {
	case "markdown", "md":
		exporter = NewMarkdownExporter(opts)
	case "json":
		exporter = NewJSONExporter(opts)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.GetTitle()),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outputPath, err)
	}
	return outputPath, nil
}

// sanitizeFilename keeps a short filesystem-safe slug of the title.
func sanitizeFilename(title string) string {
	if title == "" {
		return "untitled"
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteByte('_')
		}
	}
	slug := strings.Trim(sb.String(), "_")
	if slug == "" {
		return "untitled"
	}
	if len(slug) > 40 {
		slug = slug[:40]
	}
	return slug
}
