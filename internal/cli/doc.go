// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the tetsu command line surface.
//
// The package owns argument parsing and the non-TUI command handlers:
// one-shot questions (ask), the plain-terminal chat REPL (chat), and
// the status, config, and export utilities. The TUI itself lives in
// internal/ui and is launched from main when no command is given.
//
// # Key Types
//
//   - Command: the parsed top-level command
//   - Args: flags and positionals shared by all handlers
//   - ArgParser: subcommand and flag parsing for handler internals
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	}
package cli
