package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/settlesavvy/suitability-cli/internal/engine"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute cached scores",
	Long:  "Re-runs normalization and filter evaluation for a single policy or every active policy of a map, committing each policy's batch atomically.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		policyID, _ := cmd.Flags().GetString("policy")
		mapID, _ := cmd.Flags().GetString("map")
		if (policyID == "") == (mapID == "") {
			return eris.New("recompute: exactly one of --policy or --map is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		orch := newOrchestrator(st)

		var summary *engine.Summary
		if policyID != "" {
			summary, err = orch.RecomputePolicy(ctx, policyID)
		} else {
			summary, err = orch.RecomputeMap(ctx, mapID)
		}
		if err != nil {
			return eris.Wrap(err, "recompute")
		}

		fmt.Printf("Updated %d score entries (%d geographies skipped for missing values)\n",
			summary.Updated, summary.Skipped)
		return nil
	},
}

func init() {
	recomputeCmd.Flags().String("policy", "", "recompute a single policy by ID")
	recomputeCmd.Flags().String("map", "", "recompute every active policy of a map")
	rootCmd.AddCommand(recomputeCmd)
}
