// Package config loads the mindroot client configuration from
// ~/.config/mindroot/config.yaml with environment and flag overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full client configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Recents RecentsConfig `mapstructure:"recents"`
	Export  ExportConfig  `mapstructure:"export"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

// ServerConfig locates the MindRoot backend.
type ServerConfig struct {
	BaseURL string `mapstructure:"base_url"` // e.g. http://localhost:8010
}

// ChatConfig tunes the chat view.
type ChatConfig struct {
	PersonaFallback string `mapstructure:"persona_fallback"` // persona when events carry none
	ScrollTolerance int    `mapstructure:"scroll_tolerance"` // at-bottom band, in lines
}

// ThemeConfig allows customization of UI colors.
// Colors can be ANSI color numbers (0-255) or hex codes (#RRGGBB).
type ThemeConfig struct {
	Primary   string `mapstructure:"primary"`   // main accent (user prompt, highlights)
	Secondary string `mapstructure:"secondary"` // secondary accent (persona labels, borders)
	Error     string `mapstructure:"error"`     // error states
	Muted     string `mapstructure:"muted"`     // dimmed text
	Spinner   string `mapstructure:"spinner"`   // in-flight command spinner
}

// RecentsConfig controls the recently-used sessions store.
type RecentsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Max     int  `mapstructure:"max"` // keep at most N entries (0=unlimited)
}

// ExportConfig tunes HTML transcript export.
type ExportConfig struct {
	Sanitize bool   `mapstructure:"sanitize"` // strip raw HTML from agent markdown
	Title    string `mapstructure:"title"`    // document title template
}

// DebugConfig controls the raw event log.
type DebugConfig struct {
	RawLog bool `mapstructure:"raw_log"`
}

// Load reads configuration from the config file (optional), environment
// variables prefixed MINDROOT_, and defaults.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	v.SetEnvPrefix("MINDROOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", "http://localhost:8010")
	v.SetDefault("chat.persona_fallback", "default")
	v.SetDefault("chat.scroll_tolerance", 8)
	v.SetDefault("recents.enabled", true)
	v.SetDefault("recents.max", 50)
	v.SetDefault("export.sanitize", true)
	v.SetDefault("export.title", "MindRoot transcript")
}

// ApplyOverrides applies command-line overrides to the config.
func (c *Config) ApplyOverrides(server, personaFallback string) {
	if server != "" {
		c.Server.BaseURL = server
	}
	if personaFallback != "" {
		c.Chat.PersonaFallback = personaFallback
	}
}

// GetConfigDir returns the XDG config directory for mindroot.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config.
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mindroot"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mindroot"), nil
}

// GetDataDir returns the XDG data directory for mindroot.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share.
func GetDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mindroot"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "mindroot"), nil
}
