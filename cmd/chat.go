package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runvnc/mindroot-tui/internal/api"
	"github.com/runvnc/mindroot-tui/internal/config"
	"github.com/runvnc/mindroot-tui/internal/debuglog"
	"github.com/runvnc/mindroot-tui/internal/recent"
	"github.com/runvnc/mindroot-tui/internal/tui/chat"
)

var chatPersona string

var chatCmd = &cobra.Command{
	Use:   "chat [session]",
	Short: "Open an interactive chat session",
	Long: `Open an interactive TUI chat session against the MindRoot server.

With no argument a fresh session is created; passing a session name
attaches to it and replays its history before going live.

Keyboard shortcuts:
  Enter        - Send message
  Ctrl+J       - Insert newline
  Esc          - Cancel the running task
  PgUp/PgDn    - Scroll transcript
  Ctrl+C       - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatPersona, "persona-fallback", "", "Persona name for unattributed messages")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(serverURL, chatPersona)

	session := ""
	if len(args) > 0 {
		session = args[0]
	}
	if session == "" {
		session = newSessionID()
	}

	log, err := openRawLog(cfg, session)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: raw log unavailable: %v\n", err)
	}
	defer log.Close()

	if cfg.Recents.Enabled {
		if store, err := openRecents(cfg); err == nil {
			_ = store.Touch(context.Background(), cfg.Server.BaseURL, session)
			store.Close()
		}
	}

	client := api.NewClient(cfg.Server.BaseURL)
	model := chat.New(cfg, client, session, log)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run chat: %w", err)
	}
	return nil
}

// newSessionID generates a random session name, mirroring the server's
// own session naming when one is not supplied.
func newSessionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// openRawLog opens the raw event log when enabled by flag or config.
// A nil logger is returned (and safe to use) when logging is off.
func openRawLog(cfg *config.Config, session string) (*debuglog.Logger, error) {
	if !debugRaw && !cfg.Debug.RawLog {
		return nil, nil
	}
	dir, err := config.GetDataDir()
	if err != nil {
		return nil, err
	}
	return debuglog.Open(dir, session)
}

func openRecents(cfg *config.Config) (*recent.Store, error) {
	dir, err := config.GetDataDir()
	if err != nil {
		return nil, err
	}
	return recent.Open(dir, cfg.Recents.Max)
}
