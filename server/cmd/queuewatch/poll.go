package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/queuewatch/queuewatch/server/internal/config"
	"github.com/queuewatch/queuewatch/server/internal/console"
	"github.com/queuewatch/queuewatch/server/internal/ingest"
	"github.com/queuewatch/queuewatch/server/internal/scraper"
	"github.com/queuewatch/queuewatch/server/internal/store"
)

var (
	pollJSON    bool
	pollNoStore bool
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run one poll cycle and print the board",
	Long: `poll fetches every configured park once, appends the samples to the
configured store, and prints the ranking, advice and per-park rides.`,
	RunE: runPoll,
}

func init() {
	pollCmd.Flags().BoolVar(&pollJSON, "json", false, "print the board as JSON")
	pollCmd.Flags().BoolVar(&pollNoStore, "no-store", false, "keep samples in memory only")
	rootCmd.AddCommand(pollCmd)
}

func runPoll(cmd *cobra.Command, _ []string) error {
	// Logs go to stderr so stdout carries only the board.
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	storage := cfg.Storage
	if pollNoStore {
		storage = config.StorageConfig{Driver: "memory"}
	}
	st, err := store.Open(ctx, storage)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := ingest.New(cfg, scraper.New(cfg.Source, len(cfg.Parks)), st)
	b := svc.Refresh(ctx)

	out := cmd.OutOrStdout()
	if pollJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	console.RenderBoard(out, b)
	return nil
}
