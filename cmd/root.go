package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "coworking-map",
	Short: "Scrape, clean, geocode and map coworking spaces",
	Long:  "Scrapes the leportagesalarial.com coworking directory into CSV, normalizes and deduplicates it, geocodes addresses and serves search and map data.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
