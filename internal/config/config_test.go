// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Backend.URL != Default().Backend.URL {
		t.Errorf("URL = %q", cfg.Backend.URL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
log_level = "debug"

[backend]
url = "http://localhost:9999"
timeout_secs = 10

[chat]
model = "test-model"
temperature = 0.2
context_limit = 8192

[ui]
theme = "dracula"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Backend.URL != "http://localhost:9999" || cfg.Backend.TimeoutSecs != 10 {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Chat.Model != "test-model" || cfg.Chat.ContextLimit != 8192 {
		t.Errorf("chat = %+v", cfg.Chat)
	}
	if cfg.UI.Theme != "dracula" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TETSU_BACKEND_URL", "http://10.0.0.5:4000")
	t.Setenv("TETSU_MODEL", "env-model")
	t.Setenv("TETSU_API_KEY", "sk-env")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Backend.URL != "http://10.0.0.5:4000" {
		t.Errorf("URL = %q", cfg.Backend.URL)
	}
	if cfg.Chat.Model != "env-model" || cfg.Chat.APIKey != "sk-env" {
		t.Errorf("chat = %+v", cfg.Chat)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend.URL = "not a url"
	cfg.Chat.Model = ""
	cfg.Chat.Temperature = 3.5
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	var errs ValidateErrors
	if !errors.As(err, &errs) {
		t.Fatalf("err type = %T", err)
	}
	if len(errs) != 4 {
		t.Errorf("error count = %d, want 4: %v", len(errs), errs)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Chat.Model = "saved-model"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Chat.Model != "saved-model" {
		t.Errorf("model = %q", loaded.Chat.Model)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := Default()

	cfg.Storage.Path = "/tmp/custom.db"
	got, err := cfg.DatabasePath()
	if err != nil || got != "/tmp/custom.db" {
		t.Errorf("DatabasePath = %q, %v", got, err)
	}

	cfg.Storage.Path = "off"
	got, err = cfg.DatabasePath()
	if err != nil || got != "" {
		t.Errorf("disabled DatabasePath = %q, %v", got, err)
	}
}

func TestWatcherDeliversReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := Save(Default(), path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	cfg := Default()
	cfg.Chat.Model = "reloaded-model"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	select {
	case got := <-w.Updates():
		if got.Chat.Model != "reloaded-model" {
			t.Errorf("model = %q", got.Chat.Model)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}
}

func TestWatcherSkipsInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := Save(Default(), path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("log_level = \"loud\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case got := <-w.Updates():
		t.Errorf("invalid config delivered: %+v", got)
	case <-time.After(time.Second):
		// Expected: the broken intermediate state is skipped.
	}
}
