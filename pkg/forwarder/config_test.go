// Copyright 2025-2026 aturzone

package forwarder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("BALE_BOT_TOKEN", "bale-token")
	t.Setenv("BALE_CHAT_ID", "@target")
	t.Setenv("SOURCE_CHANNEL", "@source")
}

func TestLoadConfigFromEnv(t *testing.T) {
	validEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TelegramToken != "tg-token" {
		t.Errorf("TelegramToken: got %q", cfg.TelegramToken)
	}
	if cfg.SourceChannel != "@source" {
		t.Errorf("SourceChannel: got %q", cfg.SourceChannel)
	}
	// Defaults survive when unset.
	if cfg.PollTimeout != 30 {
		t.Errorf("PollTimeout default: got %d, want 30", cfg.PollTimeout)
	}
	if cfg.MediaGroupWindow() != 5*time.Second {
		t.Errorf("MediaGroupWindow default: got %s, want 5s", cfg.MediaGroupWindow())
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	vars := []string{"TELEGRAM_BOT_TOKEN", "BALE_BOT_TOKEN", "BALE_CHAT_ID", "SOURCE_CHANNEL"}
	for _, missing := range vars {
		t.Run(missing, func(t *testing.T) {
			validEnv(t)
			t.Setenv(missing, "")
			if _, err := LoadConfig(""); err == nil {
				t.Errorf("LoadConfig should fail without %s", missing)
			}
		})
	}
}

func TestLoadConfigYAMLFileWithEnvOverride(t *testing.T) {
	validEnv(t)
	t.Setenv("POLL_TIMEOUT", "10")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("poll_timeout: 60\nworkers: 8\nlog_level: debug\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	// Env wins over the file.
	if cfg.PollTimeout != 10 {
		t.Errorf("PollTimeout: got %d, want env override 10", cfg.PollTimeout)
	}
	// File wins over defaults.
	if cfg.Workers != 8 {
		t.Errorf("Workers: got %d, want 8", cfg.Workers)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	validEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfig should fail for a named file that does not exist")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	validEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("poll_timeout: [not an int"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig should fail on malformed YAML")
	}
}
