package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runvnc/mindroot-tui/internal/api"
	"github.com/runvnc/mindroot-tui/internal/config"
	"github.com/runvnc/mindroot-tui/internal/export"
	"github.com/runvnc/mindroot-tui/internal/signal"
	"github.com/runvnc/mindroot-tui/internal/transcript"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <session>",
	Short: "Export a session transcript as HTML",
	Long: `Fetch a session's history from the server and write it as a
standalone HTML document. Agent markdown is sanitized unless disabled
in config.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default <session>.html)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(serverURL, "")

	ctx, stop := signal.NotifyContext()
	defer stop()

	session := args[0]
	client := api.NewClient(cfg.Server.BaseURL)

	records, err := client.History(ctx, session)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}

	// The export path renders raw markdown itself, so the assembler runs
	// without a terminal renderer.
	asm := transcript.NewAssembler(nil, nil)
	asm.SetPersonaFallback(cfg.Chat.PersonaFallback)
	asm.LoadHistory(records)

	out := exportOutput
	if out == "" {
		out = session + ".html"
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	exporter := export.New(export.Options{
		Title:    cfg.Export.Title,
		Sanitize: cfg.Export.Sanitize,
	})
	if err := exporter.WriteHTML(f, session, asm.Turns()); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d turns to %s\n", asm.Len(), out)
	return nil
}
