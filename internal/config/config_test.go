package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:8010" {
		t.Errorf("server.base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Chat.PersonaFallback != "default" {
		t.Errorf("chat.persona_fallback = %q", cfg.Chat.PersonaFallback)
	}
	if cfg.Chat.ScrollTolerance != 8 {
		t.Errorf("chat.scroll_tolerance = %d", cfg.Chat.ScrollTolerance)
	}
	if !cfg.Export.Sanitize {
		t.Error("export.sanitize should default to true")
	}
	if !cfg.Recents.Enabled {
		t.Error("recents.enabled should default to true")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "mindroot")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "server:\n  base_url: http://mindroot.local:9000\nchat:\n  persona_fallback: Aria\n  scroll_tolerance: 12\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "http://mindroot.local:9000" {
		t.Errorf("server.base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Chat.PersonaFallback != "Aria" {
		t.Errorf("chat.persona_fallback = %q", cfg.Chat.PersonaFallback)
	}
	if cfg.Chat.ScrollTolerance != 12 {
		t.Errorf("chat.scroll_tolerance = %d", cfg.Chat.ScrollTolerance)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyOverrides("http://other:1234", "Muse")
	if cfg.Server.BaseURL != "http://other:1234" {
		t.Errorf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Chat.PersonaFallback != "Muse" {
		t.Errorf("persona_fallback = %q", cfg.Chat.PersonaFallback)
	}

	cfg.ApplyOverrides("", "")
	if cfg.Server.BaseURL != "http://other:1234" {
		t.Error("empty override must not clear existing value")
	}
}

func TestGetConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdg-test/mindroot" {
		t.Errorf("config dir = %q", dir)
	}
}
