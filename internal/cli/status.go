// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command handler for the tetsu CLI.
//
// Handles "tetsu status", which reports backend reachability and a
// summary of the local session state.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/tetsu-tui/internal/backend"
	"github.com/jeranaias/tetsu-tui/internal/config"
)

// statusProbeTimeout bounds the health check so status stays snappy
// when the backend is down.
const statusProbeTimeout = 2 * time.Second

// statusReport is the JSON shape for --json output.
type statusReport struct {
	Backend       string `json:"backend"`
	Reachable     bool   `json:"reachable"`
	Model         string `json:"model"`
	Conversations int    `json:"conversations"`
	CurrentID     string `json:"current_id"`
	Messages      int    `json:"messages"`
	Tokens        int    `json:"tokens"`
	ConfigPath    string `json:"config_path,omitempty"`
	DatabasePath  string `json:"database_path,omitempty"`
}

// HandleStatus reports backend and session status.
func HandleStatus(args Args) error {
	cfg := loadConfig(args)
	client := backend.NewClient(BackendConfig(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
	defer cancel()
	reachable := client.WaitReady(ctx) == nil

	st := OpenStore(cfg)
	conv := st.Current()

	report := statusReport{
		Backend:       cfg.Backend.URL,
		Reachable:     reachable,
		Model:         cfg.Chat.Model,
		Conversations: st.Count(),
		CurrentID:     conv.ID,
		Messages:      len(conv.Messages),
		Tokens:        conv.Tokens.Total,
	}
	if path, err := config.Path(); err == nil {
		report.ConfigPath = path
	}
	if path, err := cfg.DatabasePath(); err == nil {
		report.DatabasePath = path
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println(TitleStyle.Render("tetsu status"))
	fmt.Println()

	state := SuccessStyle.Render("reachable")
	if !reachable {
		state = ErrorStyle.Render("unreachable")
	}
	fmt.Println(LabelStyle.Render("Backend") + ValueStyle.Render(report.Backend) + "  " + state)
	fmt.Println(LabelStyle.Render("Model") + ValueStyle.Render(report.Model))
	fmt.Println(LabelStyle.Render("Conversations") + ValueStyle.Render(fmt.Sprintf("%d", report.Conversations)))
	fmt.Println(LabelStyle.Render("Current") + ValueStyle.Render(
		fmt.Sprintf("%s (%d messages, %s tokens)", report.CurrentID, report.Messages, formatTokens(report.Tokens))))
	if report.ConfigPath != "" {
		fmt.Println(LabelStyle.Render("Config") + DimStyle.Render(report.ConfigPath))
	}
	if report.DatabasePath != "" {
		fmt.Println(LabelStyle.Render("Database") + DimStyle.Render(report.DatabasePath))
	} else {
		fmt.Println(LabelStyle.Render("Database") + DimStyle.Render("persistence disabled"))
	}

	if !reachable {
		fmt.Println()
		fmt.Println(InfoStyle.Render("The backend did not answer its health check. Start it, or point"))
		fmt.Println(InfoStyle.Render("tetsu elsewhere with --backend or TETSU_BACKEND_URL."))
	}
	return nil
}
