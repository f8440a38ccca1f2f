// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for tetsu.

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdStatus
	CmdConfig
	CmdExport
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	Plain   bool // force plain output even on a TTY
	Model   string
	Backend string // backend URL override

	// Command-specific
	Query string
	File  string

	// Raw args remaining after flag parsing.
	Raw []string
}

const usageText = `tetsu - terminal client for an AI coding assistant

Tetsu talks to a locally supervised assistant backend over HTTP and
gives you a streaming chat interface for it: a full TUI, a plain REPL,
and one-shot questions. Conversations persist between runs and can be
forked, summarized, and exported.

Usage:
  tetsu                      Start the TUI (default)
  tetsu ask "question"       Ask a single question
  tetsu chat                 Plain-terminal interactive chat
  tetsu status, s            Show backend and session status
  tetsu config [show|set|path]
                             Configuration management
  tetsu export [id]          Export a conversation to a file
  tetsu version              Show version information
  tetsu help                 Show this help

Global Flags:
  -m, --model NAME   Use a specific model (overrides config)
  --backend URL      Backend base URL (overrides config)
  --plain            Disable markdown rendering and colors
  --json             Output in JSON format where supported
  -q, --quiet        Minimal output
  -v, --verbose      Verbose output

Ask Flags:
  -f, --file FILE    Include file content with the question

Export Flags:
  --format FORMAT    markdown (default) or json
  --output DIR       Destination directory (default: current)

Examples:
  tetsu ask "explain this stack trace" -f crash.log
  tetsu ask 'summarize @file:internal/store/store.go'
  tetsu chat
  tetsu export --format json
  tetsu config set chat.model claude-haiku-4-5-20251001

Files are referenced inline with @file:path or @file:"path with spaces";
tetsu fetches them through the backend and attaches the contents.

Config: ~/.tetsu/config.toml
Env:    TETSU_BACKEND_URL, TETSU_MODEL, TETSU_API_KEY, TETSU_LOG_LEVEL
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	return ParseFrom(os.Args[1:])
}

// ParseFrom parses the given arguments. Split out for tests.
func ParseFrom(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := remaining[0]
	rest := remaining[1:]

	switch cmd {
	case "tui":
		return CmdTUI, parsed

	case "ask":
		parseAskArgs(&parsed, rest)
		return CmdAsk, parsed

	case "chat":
		parsed.Raw = rest
		return CmdChat, parsed

	case "status", "s":
		parsed.Raw = rest
		return CmdStatus, parsed

	case "config":
		parsed.Raw = rest
		return CmdConfig, parsed

	case "export":
		parsed.Raw = rest
		return CmdExport, parsed

	case "version", "-V", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		// Unknown word: treat the whole line as a question.
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed
	}
}

// parseGlobalFlags extracts global flags and returns the remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--plain":
			parsed.Plain = true
		case "-m", "--model":
			if i+1 < len(args) {
				i++
				parsed.Model = args[i]
			}
		case "--backend":
			if i+1 < len(args) {
				i++
				parsed.Backend = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--backend="):
				parsed.Backend = strings.TrimPrefix(arg, "--backend=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsed
}

// parseAskArgs parses ask-specific arguments. Non-flag words are joined
// into the query.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
	args.Raw = remaining
}

// =============================================================================
// TRIVIAL HANDLERS
// =============================================================================

// HandleVersion prints version information.
func HandleVersion(args Args) {
	if args.JSON {
		fmt.Printf("{\"version\":%q,\"commit\":%q,\"built\":%q,\"go\":%q}\n",
			Version, GitCommit, BuildDate, runtime.Version())
		return
	}
	fmt.Printf("tetsu %s\n", Version)
	if args.Verbose {
		fmt.Printf("  commit: %s\n", GitCommit)
		fmt.Printf("  built:  %s\n", BuildDate)
		fmt.Printf("  go:     %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	}
}

// HandleHelp prints the usage text.
func HandleHelp(Args) {
	fmt.Print(usageText)
}

// PrintUsage prints the usage text to stderr.
func PrintUsage() {
	fmt.Fprint(os.Stderr, usageText)
}
