// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handler for the tetsu CLI.
//
// Handles "tetsu config":
//
//	tetsu config              Show current configuration
//	tetsu config show
//	tetsu config set KEY VAL  Set a value and save
//	tetsu config path         Print the config file path
//
// Keys use the TOML section names, e.g. chat.model or backend.url.

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/tetsu-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "", "show":
		return configShow(args)
	case "set":
		key := parser.Positional(1)
		val := strings.Join(parser.PositionalFrom(2), " ")
		return configSet(key, val)
	case "path":
		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return &UsageError{Command: "config", Reason: "unknown subcommand " + parser.Subcommand()}
	}
}

func configShow(args Args) error {
	cfg := loadConfig(args)

	fmt.Println(TitleStyle.Render("tetsu configuration"))
	fmt.Println()

	rows := []struct {
		key   string
		value string
	}{
		{"backend.url", cfg.Backend.URL},
		{"backend.timeout_secs", strconv.Itoa(cfg.Backend.TimeoutSecs)},
		{"chat.model", cfg.Chat.Model},
		{"chat.provider", orUnset(cfg.Chat.Provider)},
		{"chat.temperature", strconv.FormatFloat(cfg.Chat.Temperature, 'f', -1, 64)},
		{"chat.max_tokens", strconv.Itoa(cfg.Chat.MaxTokens)},
		{"chat.context_mode", orUnset(cfg.Chat.ContextMode)},
		{"chat.context_limit", strconv.Itoa(cfg.Chat.ContextLimit)},
		{"chat.api_key", maskSecret(cfg.Chat.APIKey)},
		{"ui.theme", cfg.UI.Theme},
		{"ui.show_usage", strconv.FormatBool(cfg.UI.ShowUsage)},
		{"storage.path", orUnset(cfg.Storage.Path)},
		{"log_level", cfg.LogLevel},
	}
	for _, row := range rows {
		fmt.Printf("  %s %s\n",
			LabelStyle.Width(24).Render(row.key),
			ValueStyle.Render(row.value))
	}

	if path, err := config.Path(); err == nil {
		fmt.Println()
		fmt.Println(DimStyle.Render("file: " + path))
	}
	return nil
}

func configSet(key, value string) error {
	if key == "" {
		return &UsageError{Command: "config set", Reason: "key required (e.g. chat.model)"}
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	if err := applyConfigKey(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path, err := config.Path()
	if err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}

	fmt.Println(SuccessStyle.Render("set ") + ValueStyle.Render(key+" = "+value))
	return nil
}

// applyConfigKey sets a single dotted key on the config.
func applyConfigKey(cfg *config.Config, key, value string) error {
	switch key {
	case "backend.url":
		cfg.Backend.URL = value
	case "backend.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		cfg.Backend.TimeoutSecs = n
	case "chat.model":
		cfg.Chat.Model = value
	case "chat.provider":
		cfg.Chat.Provider = value
	case "chat.temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
		cfg.Chat.Temperature = f
	case "chat.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		cfg.Chat.MaxTokens = n
	case "chat.system_prompt":
		cfg.Chat.SystemPrompt = value
	case "chat.context_mode":
		cfg.Chat.ContextMode = value
	case "chat.context_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		cfg.Chat.ContextLimit = n
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.show_usage":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
		cfg.UI.ShowUsage = b
	case "storage.path":
		cfg.Storage.Path = value
	case "log_level":
		cfg.LogLevel = value
	default:
		return &UsageError{Command: "config set", Reason: "unknown key " + key}
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func maskSecret(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "********"
}
