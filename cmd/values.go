package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/settlesavvy/suitability-cli/internal/geo"
)

var valuesCmd = &cobra.Command{
	Use:   "values",
	Short: "Manage raw factor values",
}

// -- values import --

var valuesImportCmd = &cobra.Command{
	Use:   "import <factor-id> <csv-file>",
	Short: "Bulk import raw values for a factor from CSV",
	Long:  "Reads (geo_id, value) rows from a CSV export and upserts them as the factor's raw measurements. Rows with blank geo_ids or unparseable values are skipped.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		factorID, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Errorf("values import: invalid factor ID %q", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if _, err := st.GetFactor(ctx, factorID); err != nil {
			return eris.Wrap(err, "values import")
		}

		f, err := os.Open(args[1])
		if err != nil {
			return eris.Wrapf(err, "values import: open %s", args[1])
		}
		defer f.Close() //nolint:errcheck

		values, skipped, err := geo.ParseValuesCSV(f, factorID)
		if err != nil {
			return eris.Wrap(err, "values import")
		}

		var imported int64
		for start := 0; start < len(values); start += cfg.Import.BatchSize {
			end := min(start+cfg.Import.BatchSize, len(values))
			n, err := st.BulkUpsertFactorValues(ctx, values[start:end])
			if err != nil {
				return eris.Wrap(err, "values import")
			}
			imported += n
		}

		zap.L().Info("values imported",
			zap.Int("factor_id", factorID),
			zap.Int64("imported", imported),
			zap.Int("skipped", skipped),
		)
		fmt.Printf("Imported %d values for factor %d (%d rows skipped)\n", imported, factorID, skipped)
		return nil
	},
}

// -- values list --

var valuesListCmd = &cobra.Command{
	Use:   "list <factor-id>",
	Short: "List the raw values of a factor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		factorID, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Errorf("values list: invalid factor ID %q", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		values, err := st.ListFactorValues(ctx, factorID)
		if err != nil {
			return eris.Wrap(err, "values list")
		}

		if len(values) == 0 {
			fmt.Fprintln(os.Stderr, "No values found.")
			return nil
		}
		for _, v := range values {
			marker := ""
			if v.NeedsFetch {
				marker = "\t(stale)"
			}
			fmt.Printf("%s\t%g%s\n", v.GeoID, v.Value, marker)
		}
		return nil
	},
}

func init() {
	valuesCmd.AddCommand(valuesImportCmd)
	valuesCmd.AddCommand(valuesListCmd)
	rootCmd.AddCommand(valuesCmd)
}
