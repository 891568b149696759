// Package ui holds the shared theme and lipgloss styles for the TUI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines the color palette for the UI.
type Theme struct {
	Primary   lipgloss.Color // main accent (user prompt, highlights)
	Secondary lipgloss.Color // secondary accent (persona labels, borders)
	Error     lipgloss.Color // error states
	Muted     lipgloss.Color // dimmed/secondary text
	Text      lipgloss.Color // primary text
	Spinner   lipgloss.Color // in-flight command spinner
	Border    lipgloss.Color // borders and dividers
}

// DefaultTheme returns the default palette (gruvbox), picking the light
// variant on light terminal backgrounds.
func DefaultTheme() *Theme {
	if !termenv.HasDarkBackground() {
		return &Theme{
			Primary:   lipgloss.Color("#79740e"),
			Secondary: lipgloss.Color("#076678"),
			Error:     lipgloss.Color("#9d0006"),
			Muted:     lipgloss.Color("#7c6f64"),
			Text:      lipgloss.Color("#3c3836"),
			Spinner:   lipgloss.Color("#8f3f71"),
			Border:    lipgloss.Color("#076678"),
		}
	}
	return &Theme{
		Primary:   lipgloss.Color("#b8bb26"),
		Secondary: lipgloss.Color("#83a598"),
		Error:     lipgloss.Color("#fb4934"),
		Muted:     lipgloss.Color("#928374"),
		Text:      lipgloss.Color("#ebdbb2"),
		Spinner:   lipgloss.Color("#d3869b"),
		Border:    lipgloss.Color("#83a598"),
	}
}

// ThemeConfig mirrors config.ThemeConfig for applying overrides without
// importing the config package.
type ThemeConfig struct {
	Primary   string
	Secondary string
	Error     string
	Muted     string
	Spinner   string
}

// ThemeFromConfig creates a theme with config overrides applied.
func ThemeFromConfig(cfg ThemeConfig) *Theme {
	theme := DefaultTheme()

	if cfg.Primary != "" {
		theme.Primary = lipgloss.Color(cfg.Primary)
	}
	if cfg.Secondary != "" {
		theme.Secondary = lipgloss.Color(cfg.Secondary)
		theme.Border = lipgloss.Color(cfg.Secondary)
	}
	if cfg.Error != "" {
		theme.Error = lipgloss.Color(cfg.Error)
	}
	if cfg.Muted != "" {
		theme.Muted = lipgloss.Color(cfg.Muted)
	}
	if cfg.Spinner != "" {
		theme.Spinner = lipgloss.Color(cfg.Spinner)
	}
	return theme
}

// Styles holds styled text helpers bound to a renderer.
type Styles struct {
	theme *Theme

	Prompt       lipgloss.Style // user message prompt marker
	PersonaLabel lipgloss.Style // AI persona name above a turn
	UserLabel    lipgloss.Style // user label above a turn
	Muted        lipgloss.Style
	Error        lipgloss.Style
	Spinner      lipgloss.Style
	Placeholder  lipgloss.Style // command placeholder turns
	Footer       lipgloss.Style
}

// NewStyles creates styles for the given output with the given theme.
func NewStyles(output *os.File, theme *Theme) *Styles {
	r := lipgloss.NewRenderer(output)

	return &Styles{
		theme: theme,

		Prompt: r.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		PersonaLabel: r.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		UserLabel: r.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Muted: r.NewStyle().
			Foreground(theme.Muted),

		Error: r.NewStyle().
			Foreground(theme.Error),

		Spinner: r.NewStyle().
			Foreground(theme.Spinner),

		Placeholder: r.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Footer: r.NewStyle().
			Foreground(theme.Muted),
	}
}

// Theme returns the theme the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
