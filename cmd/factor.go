package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/settlesavvy/suitability-cli/internal/model"
	"github.com/settlesavvy/suitability-cli/internal/store"
)

var factorCmd = &cobra.Command{
	Use:   "factor",
	Short: "Manage the factor catalog",
	Long:  "Commands for adding, listing, and deactivating measurable factors (crime rate, commute time, school rating, ...).",
}

// -- factor add --

var factorAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a factor to the catalog",
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

		displayName, _ := cmd.Flags().GetString("display-name")
		description, _ := cmd.Flags().GetString("description")
		source, _ := cmd.Flags().GetString("source")
		category, _ := cmd.Flags().GetString("category")
		units, _ := cmd.Flags().GetString("units")
		strategy, _ := cmd.Flags().GetString("scoring-strategy")

		parsed, err := model.ParseScoringStrategy(strategy)
		if err != nil {
			return eris.Wrap(err, "factor add")
		}

		id, err := st.CreateFactor(ctx, &model.Factor{
			Name:                   args[0],
			DisplayName:            displayName,
			Description:            description,
			Source:                 source,
			Category:               category,
			Units:                  units,
			DefaultScoringStrategy: parsed,
			IsActive:               true,
		})
		if err != nil {
			return eris.Wrap(err, "factor add")
		}

		fmt.Printf("Created factor %d (%s)\n", id, args[0])
		return nil
	},
}

// -- factor list --

var factorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog factors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		category, _ := cmd.Flags().GetString("category")
		activeOnly, _ := cmd.Flags().GetBool("active")

		factors, err := st.ListFactors(ctx, store.FactorFilter{Category: category, ActiveOnly: activeOnly})
		if err != nil {
			return eris.Wrap(err, "factor list")
		}

		if len(factors) == 0 {
			fmt.Fprintln(os.Stderr, "No factors found.")
			return nil
		}

		formatFactorList(os.Stdout, factors)
		return nil
	},
}

// -- factor show --

var factorShowCmd = &cobra.Command{
	Use:   "show <factor-id>",
	Short: "Show full details of a factor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Errorf("factor show: invalid factor ID %q", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		f, err := st.GetFactor(ctx, id)
		if err != nil {
			return eris.Wrap(err, "factor show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	},
}

// -- factor deactivate --

var factorDeactivateCmd = &cobra.Command{
	Use:   "deactivate <factor-id>",
	Short: "Deactivate a factor without removing historical data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Errorf("factor deactivate: invalid factor ID %q", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeactivateFactor(ctx, id); err != nil {
			return eris.Wrap(err, "factor deactivate")
		}
		fmt.Printf("Deactivated factor %d\n", id)
		return nil
	},
}

func init() {
	factorAddCmd.Flags().String("display-name", "", "human-readable name")
	factorAddCmd.Flags().String("description", "", "what the factor measures")
	factorAddCmd.Flags().String("source", "", "data source (e.g. FBI UCR, ACS)")
	factorAddCmd.Flags().String("category", "", "grouping category (safety, transit, schools, ...)")
	factorAddCmd.Flags().String("units", "", "measurement units")
	factorAddCmd.Flags().String("scoring-strategy", string(model.ScoringNone), "default scoring strategy (higher_better, lower_better, no_scoring)")

	factorListCmd.Flags().String("category", "", "filter by category")
	factorListCmd.Flags().Bool("active", false, "only show active factors")

	factorCmd.AddCommand(factorAddCmd)
	factorCmd.AddCommand(factorListCmd)
	factorCmd.AddCommand(factorShowCmd)
	factorCmd.AddCommand(factorDeactivateCmd)
	rootCmd.AddCommand(factorCmd)
}

// formatFactorList writes a tabular factor listing to w.
func formatFactorList(out io.Writer, factors []model.Factor) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tUNITS\tSTRATEGY\tACTIVE")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t-----\t--------\t------")

	for _, f := range factors {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n",
			f.ID, f.Name, f.Category, f.Units, f.DefaultScoringStrategy, f.IsActive)
	}
	_ = w.Flush()
}
