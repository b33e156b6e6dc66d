package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/seo-dashboard/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "seo-dashboard",
	Short: "AI-powered SEO analysis dashboard",
	Long:  "Scrapes a website, asks a language model for a structured SEO report, and shows it as a tabbed dashboard or in the terminal.",
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
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
