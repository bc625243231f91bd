package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage factor policies",
	Long:  "Commands for configuring how factors are weighted, normalized, and filtered within a map.",
}

// -- policy set --

var policySetCmd = &cobra.Command{
	Use:   "set <map-id> <factor-id>",
	Short: "Create or update the policy for a factor within a map",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mapID := args[0]

		factorID, err := strconv.Atoi(args[1])
		if err != nil {
			return eris.Errorf("policy set: invalid factor ID %q", args[1])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if _, err := st.GetMap(ctx, mapID); err != nil {
			return eris.Wrap(err, "policy set")
		}
		factor, err := st.GetFactor(ctx, factorID)
		if err != nil {
			return eris.Wrap(err, "policy set")
		}

		weight, _ := cmd.Flags().GetFloat64("weight")
		scoring, _ := cmd.Flags().GetString("scoring-strategy")
		filter, _ := cmd.Flags().GetString("filter-strategy")

		if scoring == "" {
			scoring = string(factor.DefaultScoringStrategy)
		}
		scoringParsed, err := model.ParseScoringStrategy(scoring)
		if err != nil {
			return eris.Wrap(err, "policy set")
		}
		filterParsed, err := model.ParseFilterStrategy(filter)
		if err != nil {
			return eris.Wrap(err, "policy set")
		}

		p := &model.FactorPolicy{
			ID:              uuid.NewString(),
			MapID:           mapID,
			FactorID:        factorID,
			Weight:          weight,
			ScoringStrategy: scoringParsed,
			FilterStrategy:  filterParsed,
			ScoreTipping1:   flagFloat(cmd, "score-tipping-1"),
			ScoreTipping2:   flagFloat(cmd, "score-tipping-2"),
			FilterTipping1:  flagFloat(cmd, "filter-tipping-1"),
			FilterTipping2:  flagFloat(cmd, "filter-tipping-2"),
			IsActive:        true,
			CreatedAt:       time.Now().UTC(),
		}
		if err := st.SavePolicy(ctx, p); err != nil {
			return eris.Wrap(err, "policy set")
		}

		fmt.Printf("Saved policy for factor %s on map %s\n", factor.Name, mapID)
		return nil
	},
}

// -- policy list --

var policyListCmd = &cobra.Command{
	Use:   "list <map-id>",
	Short: "List the policies of a map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		activeOnly, _ := cmd.Flags().GetBool("active")
		policies, err := st.ListPolicies(ctx, args[0], activeOnly)
		if err != nil {
			return eris.Wrap(err, "policy list")
		}

		if len(policies) == 0 {
			fmt.Fprintln(os.Stderr, "No policies found.")
			return nil
		}

		formatPolicyList(os.Stdout, policies)
		return nil
	},
}

// -- policy show --

var policyShowCmd = &cobra.Command{
	Use:   "show <policy-id>",
	Short: "Show full details of a policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		p, err := st.GetPolicy(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "policy show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

// -- policy deactivate --

var policyDeactivateCmd = &cobra.Command{
	Use:   "deactivate <policy-id>",
	Short: "Deactivate a policy so it no longer contributes to scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeactivatePolicy(ctx, args[0]); err != nil {
			return eris.Wrap(err, "policy deactivate")
		}
		fmt.Printf("Deactivated policy %s\n", args[0])
		return nil
	},
}

func init() {
	policySetCmd.Flags().Float64("weight", 1, "relative weight in the composite score (>= 0)")
	policySetCmd.Flags().String("scoring-strategy", "", "higher_better, lower_better, or no_scoring (defaults to the factor's)")
	policySetCmd.Flags().String("filter-strategy", string(model.FilterNone), "above_threshold, below_threshold, between_thresholds, outside_thresholds, no_filter")
	policySetCmd.Flags().Float64("score-tipping-1", 0, "raw value mapping to the worst score")
	policySetCmd.Flags().Float64("score-tipping-2", 0, "raw value mapping to the best score")
	policySetCmd.Flags().Float64("filter-tipping-1", 0, "first filter threshold")
	policySetCmd.Flags().Float64("filter-tipping-2", 0, "second filter threshold")

	policyListCmd.Flags().Bool("active", false, "only show active policies")

	policyCmd.AddCommand(policySetCmd)
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyDeactivateCmd)
	rootCmd.AddCommand(policyCmd)
}

// flagFloat returns the flag value as a pointer, or nil when the flag
// was not set on the command line. Unset tipping points stay NULL so the
// engine can tell "not configured" from zero.
func flagFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

// formatPolicyList writes a tabular policy listing to w.
func formatPolicyList(out io.Writer, policies []model.FactorPolicy) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFACTOR\tWEIGHT\tSCORING\tFILTER\tACTIVE")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t-------\t------\t------")

	for _, p := range policies {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\t%s\t%s\t%t\n",
			truncateID(p.ID), p.FactorID, p.Weight, p.ScoringStrategy, p.FilterStrategy, p.IsActive)
	}
	_ = w.Flush()
}
