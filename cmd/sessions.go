package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/runvnc/mindroot-tui/internal/config"
	"github.com/runvnc/mindroot-tui/internal/recent"
	"github.com/runvnc/mindroot-tui/internal/signal"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions [query]",
	Short: "Pick a recent session and open it",
	Long: `List recently used sessions for the configured server, newest first,
and open the selected one. An optional query fuzzy-filters the list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(serverURL, "")

	if !cfg.Recents.Enabled {
		return fmt.Errorf("recent session tracking is disabled in config")
	}

	store, err := openRecents(cfg)
	if err != nil {
		return fmt.Errorf("opening recent sessions: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext()
	defer stop()

	entries, err := store.List(ctx, cfg.Server.BaseURL, sessionsLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recent sessions for", cfg.Server.BaseURL)
		return nil
	}

	if len(args) > 0 && args[0] != "" {
		entries = fuzzyFilter(entries, args[0])
		if len(entries) == 0 {
			return fmt.Errorf("no session matches %q", args[0])
		}
	}

	session, err := selectSession(entries)
	if err != nil {
		return err
	}
	if session == "" {
		return nil
	}

	return runChat(cmd, []string{session})
}

// fuzzyFilter narrows entries by session name, best match first.
func fuzzyFilter(entries []recent.Entry, query string) []recent.Entry {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Session
	}

	var out []recent.Entry
	for _, m := range fuzzy.Find(query, names) {
		out = append(out, entries[m.Index])
	}
	return out
}

func selectSession(entries []recent.Entry) (string, error) {
	options := make([]huh.Option[string], 0, len(entries))
	for _, e := range entries {
		options = append(options, huh.NewOption(sessionLabel(e), e.Session))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Recent sessions").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func sessionLabel(e recent.Entry) string {
	age := time.Since(e.LastUsed)
	var when string
	switch {
	case age < time.Minute:
		when = "just now"
	case age < time.Hour:
		when = fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		when = fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		when = fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}

	var b strings.Builder
	b.WriteString(e.Session)
	b.WriteString("  (")
	b.WriteString(when)
	if e.Uses > 1 {
		fmt.Fprintf(&b, ", %d uses", e.Uses)
	}
	b.WriteString(")")
	return b.String()
}
