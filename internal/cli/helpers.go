// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared wiring used by the tetsu command handlers.

package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/tetsu-tui/internal/backend"
	"github.com/jeranaias/tetsu-tui/internal/config"
	"github.com/jeranaias/tetsu-tui/internal/kv"
	"github.com/jeranaias/tetsu-tui/internal/log"
	"github.com/jeranaias/tetsu-tui/internal/store"
)

// loadConfig loads the user configuration and applies CLI overrides.
// A broken config file is reported but never fatal; the defaults keep
// the CLI usable.
func loadConfig(args Args) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Warn("cli: config load failed, using defaults: %v", err)
		cfg = config.Default()
	}
	if args.Model != "" {
		cfg.Chat.Model = args.Model
	}
	if args.Backend != "" {
		cfg.Backend.URL = args.Backend
	}
	return cfg
}

// BackendConfig translates the user configuration into client settings.
func BackendConfig(cfg *config.Config) backend.Config {
	return backend.Config{
		BaseURL:      cfg.Backend.URL,
		Model:        cfg.Chat.Model,
		Provider:     cfg.Chat.Provider,
		Temperature:  cfg.Chat.Temperature,
		MaxTokens:    cfg.Chat.MaxTokens,
		SystemPrompt: cfg.Chat.SystemPrompt,
		APIKey:       cfg.Chat.APIKey,
		ContextMode:  cfg.Chat.ContextMode,
		Timeout:      time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
	}
}

// OpenStore opens the conversation store. Persistence failures degrade
// to an in-memory store so chat keeps working.
func OpenStore(cfg *config.Config) *store.Store {
	path, err := cfg.DatabasePath()
	if err != nil {
		log.Warn("cli: persistence disabled: %v", err)
		return store.New(nil)
	}
	if path == "" {
		return store.New(nil)
	}
	db, err := kv.Open(path)
	if err != nil {
		log.Warn("cli: persistence disabled, cannot open %s: %v", path, err)
		return store.New(nil)
	}
	return store.New(db)
}

// renderMarkdown renders text for terminal display using the configured
// theme. On any renderer failure the raw text comes back unchanged.
func renderMarkdown(text, theme string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(theme),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// formatTokens formats a token count for display.
func formatTokens(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}
