package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerURL == "" {
		t.Error("expected a default server URL")
	}
	if cfg.ProactiveDelay != 10*time.Second {
		t.Errorf("proactive delay = %v, want 10s", cfg.ProactiveDelay)
	}
	if cfg.SoftPromptThreshold != 5 {
		t.Errorf("soft prompt threshold = %d, want 5", cfg.SoftPromptThreshold)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("history limit = %d, want 20", cfg.HistoryLimit)
	}
	if cfg.DataDir == "" {
		t.Error("expected a resolved data dir")
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"server_url": "wss://chat.example.com/ws",
		"soft_prompt_threshold": 3,
		"data_dir": "` + dir + `"
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerURL != "wss://chat.example.com/ws" {
		t.Errorf("server url = %q", cfg.ServerURL)
	}
	if cfg.SoftPromptThreshold != 3 {
		t.Errorf("threshold = %d, want 3", cfg.SoftPromptThreshold)
	}
	// Unset keys keep their defaults
	if cfg.HistoryLimit != 20 {
		t.Errorf("history limit = %d, want default 20", cfg.HistoryLimit)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}
