package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queuewatch/queuewatch/server/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a config file and print what it configures",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnv(); err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		source := configPath
		if source == "" {
			source = "built-in defaults"
		}
		fmt.Fprintf(out, "config OK (%s)\n", source)
		fmt.Fprintf(out, "  parks:       %d\n", len(cfg.Parks))
		for _, p := range cfg.Parks {
			fmt.Fprintf(out, "    %-28s id=%-4d %s\n", p.Name, p.ID, p.Hours)
		}
		fmt.Fprintf(out, "  exclusions:  %d\n", len(cfg.Exclusions))
		fmt.Fprintf(out, "  storage:     %s\n", cfg.Storage.Driver)
		fmt.Fprintf(out, "  auth:        %s\n", authMode(cfg.Server.Auth))
		fmt.Fprintf(out, "  alert rules: %d\n", len(cfg.Alerts.Rules))
		if cfg.Storage.Driver == "postgres" && cfg.Storage.DSN() == "" {
			fmt.Fprintf(out, "  warning: %s is not set\n", cfg.Storage.DSNEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func authMode(a config.AuthConfig) string {
	if a.Mode != "apikey" {
		return "none"
	}
	if a.Key() == "" {
		return fmt.Sprintf("apikey (%s unset, checks disabled)", a.KeyEnv)
	}
	return fmt.Sprintf("apikey via %s header", a.EffectiveHeader())
}
