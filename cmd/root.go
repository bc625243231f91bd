package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/settlesavvy/suitability-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "suitability",
	Short: "Neighborhood suitability scoring engine",
	Long:  "Manages factor catalogs, maps, and scoring policies; normalizes raw factor values into 0-100 scores, applies veto filters, and aggregates weighted composite scores per geography.",
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
