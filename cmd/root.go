package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shoe-curation",
	Short: "Running shoe review curation and AI summaries",
	Long:  "Aggregates running shoe reviews from video, web, marketplace and community sources, curates them per shoe, and writes AI summary reviews from the collected sources.",
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
