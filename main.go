// tetsu - a streaming terminal client for an AI coding assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tetsu-tui/internal/backend"
	"github.com/jeranaias/tetsu-tui/internal/cli"
	"github.com/jeranaias/tetsu-tui/internal/config"
	"github.com/jeranaias/tetsu-tui/internal/log"
	"github.com/jeranaias/tetsu-tui/internal/ui/chat"
	"github.com/jeranaias/tetsu-tui/internal/ui/styles"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		exit(cli.HandleAsk(args))
	case cli.CmdChat:
		exit(cli.HandleChat(args))
	case cli.CmdStatus:
		exit(cli.HandleStatus(args))
	case cli.CmdConfig:
		exit(cli.HandleConfig(args))
	case cli.CmdExport:
		exit(cli.HandleExport(args))
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp(args)
	}
}

// exit reports a handler error and terminates with its exit code.
func exit(err error) {
	if err == nil {
		return
	}
	cli.PrintError(err)
	os.Exit(cli.ExitCodeFor(err))
}

// =============================================================================
// TUI STARTUP
// =============================================================================

func runTUI(args cli.Args) {
	if !cli.IsTTY() || !cli.IsStdoutTTY() {
		fmt.Fprintln(os.Stderr, "tetsu: the TUI needs a terminal; use 'tetsu ask' for piped input")
		os.Exit(cli.ExitUsageError)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn("config load failed, using defaults: %v", err)
		cfg = config.Default()
	}
	if args.Model != "" {
		cfg.Chat.Model = args.Model
	}
	if args.Backend != "" {
		cfg.Backend.URL = args.Backend
	}
	applyLogLevel(cfg.LogLevel)

	client := backend.NewClient(cli.BackendConfig(cfg))
	if err := client.WaitReady(context.Background()); err != nil {
		cli.PrintError(err)
		os.Exit(cli.ExitBackendError)
	}

	st := cli.OpenStore(cfg)

	// Hot-reload the log level while the TUI runs. Other settings apply
	// on next start.
	if path, err := config.Path(); err == nil {
		if watcher, err := config.Watch(path); err == nil {
			defer watcher.Close()
			go func() {
				for updated := range watcher.Updates() {
					applyLogLevel(updated.LogLevel)
				}
			}()
		}
	}

	m := chat.New(chat.Options{
		Theme:  styles.NewTheme(),
		Config: cfg,
		Store:  st,
		Client: client,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running tetsu: %v\n", err)
		os.Exit(1)
	}

	// Let background work (title generation) settle before exit.
	if fm, ok := final.(chat.Model); ok {
		fm.Controller().Wait()
	}
	st.Save()
}

func applyLogLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		log.SetLevel(log.LevelDebug)
	case "warn":
		log.SetLevel(log.LevelWarn)
	case "error":
		log.SetLevel(log.LevelError)
	default:
		log.SetLevel(log.LevelInfo)
	}
}
