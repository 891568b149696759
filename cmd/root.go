package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "MindRoot server base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugRaw, "debug-raw", false, "Write raw event logs to the data directory")
}

var rootCmd = &cobra.Command{
	Use:   "mindroot",
	Short: "Terminal client for MindRoot chat sessions",
	Long: `mindroot is a terminal client for a MindRoot agent server: it streams
live chat sessions, renders agent markdown, and exports transcripts.

Examples:
  mindroot chat                         # start a new session
  mindroot chat my-session             # attach to a session
  mindroot sessions                     # pick a recent session
  mindroot export my-session -o t.html # export a transcript

  mindroot config                       # view configuration`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var (
	serverURL string
	debugRaw  bool
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
