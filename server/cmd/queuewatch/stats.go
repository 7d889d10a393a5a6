package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/queuewatch/queuewatch/server/internal/console"
	"github.com/queuewatch/queuewatch/server/internal/metrics"
)

var (
	statsURL      string
	statsInterval time.Duration
	statsHeader   string
	statsKey      string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize a running server's /metrics page",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsURL, "url", "http://localhost:8080/metrics", "metrics endpoint to read")
	statsCmd.Flags().DurationVar(&statsInterval, "interval", 0, "repeat every interval; 0 prints once")
	statsCmd.Flags().StringVar(&statsHeader, "header", "x-api-key", "API key header name")
	statsCmd.Flags().StringVar(&statsKey, "api-key", "", "API key, when the server requires one")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	for {
		s, err := scrapeSummary(ctx, client)
		if err != nil {
			return err
		}
		console.RenderSummary(cmd.OutOrStdout(), statsURL, s)

		if statsInterval <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(statsInterval):
		}
	}
}

func scrapeSummary(ctx context.Context, client *http.Client) (*metrics.Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("stats: build request: %w", err)
	}
	if statsKey != "" {
		req.Header.Set(statsHeader, statsKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats: %s returned HTTP %d", statsURL, resp.StatusCode)
	}
	return metrics.Summarize(resp.Body)
}
