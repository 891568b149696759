package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/runvnc/mindroot-tui/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mindroot configuration",
	Long: `View or edit the mindroot configuration.

Examples:
  mindroot config                     # show current config
  mindroot config edit                # edit in $EDITOR
  mindroot config path                # print config file path`,
	RunE: configShow, // Default to show
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file in $EDITOR",
	RunE:  configEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	RunE:  configPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
}

func configFilePath() (string, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configShow(cmd *cobra.Command, args []string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Printf("# No config file (using defaults)\n")
		fmt.Printf("# Create one at: %s\n\n", path)
	} else {
		fmt.Printf("# %s\n\n", path)
	}

	out := map[string]any{
		"server": map[string]any{
			"base_url": cfg.Server.BaseURL,
		},
		"chat": map[string]any{
			"persona_fallback": cfg.Chat.PersonaFallback,
			"scroll_tolerance": cfg.Chat.ScrollTolerance,
		},
		"theme": map[string]any{
			"primary":   cfg.Theme.Primary,
			"secondary": cfg.Theme.Secondary,
			"error":     cfg.Theme.Error,
			"muted":     cfg.Theme.Muted,
			"spinner":   cfg.Theme.Spinner,
		},
		"recents": map[string]any{
			"enabled": cfg.Recents.Enabled,
			"max":     cfg.Recents.Max,
		},
		"export": map[string]any{
			"sanitize": cfg.Export.Sanitize,
			"title":    cfg.Export.Title,
		},
		"debug": map[string]any{
			"raw_log": cfg.Debug.RawLog,
		},
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func configEdit(cmd *cobra.Command, args []string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
