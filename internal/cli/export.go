// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export.go - Export command handler for the tetsu CLI.
//
// Handles "tetsu export":
//
//	tetsu export                     Export the current conversation
//	tetsu export ID                  Export a specific conversation
//	tetsu export --format json
//	tetsu export --output ~/notes

package cli

import (
	"fmt"

	"github.com/jeranaias/tetsu-tui/internal/export"
)

// HandleExport writes a conversation to a file.
func HandleExport(args Args) error {
	parser := NewArgParser(args.Raw)

	cfg := loadConfig(args)
	st := OpenStore(cfg)

	conv := st.Current()
	if id := parser.Positional(0); id != "" {
		conv = st.Get(id)
		if conv == nil {
			return fmt.Errorf("unknown conversation %s", id)
		}
	}
	if len(conv.Messages) == 0 {
		return &UsageError{Command: "export", Reason: "conversation is empty"}
	}

	format := parser.FlagOrDefault("format", "markdown")
	opts := export.DefaultOptions()
	if dir := parser.Flag("output"); dir != "" {
		opts.OutputDir = dir
	}

	path, err := export.ToFile(conv, format, opts)
	if err != nil {
		return err
	}

	if args.Quiet {
		fmt.Println(path)
	} else {
		fmt.Println(SuccessStyle.Render("exported ") + ValueStyle.Render(path))
	}
	return nil
}
