package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/settlesavvy/suitability-cli/internal/geo"
	"github.com/settlesavvy/suitability-cli/internal/store"
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Manage geography boundaries",
}

// -- geo import --

var geoImportCmd = &cobra.Command{
	Use:   "import <shapefile>",
	Short: "Import geography boundaries from a TIGER/Line shapefile",
	Long:  "Reads tract or place records from a shapefile, converts boundaries to GeoJSON, and upserts them keyed by GEOID. Re-importing a newer vintage updates boundaries in place.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		geoType, _ := cmd.Flags().GetString("geo-type")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		return importShapefile(ctx, st, args[0], geoType)
	},
}

// importShapefile parses a shapefile and upserts its records in batches.
func importShapefile(ctx context.Context, st store.Store, shpPath, geoType string) error {
	geos, skipped, err := geo.ParseShapefile(shpPath, geoType)
	if err != nil {
		return eris.Wrap(err, "geo import")
	}
	if len(geos) == 0 {
		return eris.Errorf("geo import: no usable records in %s", shpPath)
	}

	var imported int64
	for start := 0; start < len(geos); start += cfg.Import.BatchSize {
		end := min(start+cfg.Import.BatchSize, len(geos))
		n, err := st.BulkUpsertGeographies(ctx, geos[start:end])
		if err != nil {
			return eris.Wrap(err, "geo import")
		}
		imported += n
	}

	zap.L().Info("geographies imported",
		zap.String("path", shpPath),
		zap.String("geo_type", geoType),
		zap.Int64("imported", imported),
		zap.Int("skipped", skipped),
	)
	fmt.Printf("Imported %d geographies (%d records skipped)\n", imported, skipped)
	return nil
}

// -- geo fetch --

var geoFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and import TIGER/Line boundaries for a state",
	Long:  "Downloads the Census Bureau TIGER/Line shapefile for a state's tracts or places, caching the archive locally, then imports the records.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		state, _ := cmd.Flags().GetString("state")
		year, _ := cmd.Flags().GetInt("year")
		geoType, _ := cmd.Flags().GetString("geo-type")
		cacheDir, _ := cmd.Flags().GetString("cache-dir")

		if state == "" {
			return eris.New("geo fetch: --state is required")
		}

		var url string
		switch geoType {
		case "tract":
			url = geo.TractURL(year, state)
		case "place":
			url = geo.PlaceURL(year, state)
		default:
			return eris.Errorf("geo fetch: unsupported geo-type %q (tract or place)", geoType)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		shpPath, err := geo.FetchShapefile(ctx, url, cacheDir)
		if err != nil {
			return eris.Wrap(err, "geo fetch")
		}

		return importShapefile(ctx, st, shpPath, geoType)
	},
}

// -- geo show --

var geoShowCmd = &cobra.Command{
	Use:   "show <geo-id>",
	Short: "Show a geography record",
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

		g, err := st.GetGeography(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "geo show")
		}

		fmt.Printf("%s\t%s\t%s\t(%.4f, %.4f)\n", g.GeoID, g.GeoType, g.NAMELSAD, g.IntPtLat, g.IntPtLon)
		return nil
	},
}

func init() {
	geoImportCmd.Flags().String("geo-type", "tract", "geography type label (tract, place, county)")

	geoFetchCmd.Flags().String("state", "", "two-digit state FIPS code")
	geoFetchCmd.Flags().Int("year", 2024, "TIGER/Line vintage year")
	geoFetchCmd.Flags().String("geo-type", "tract", "geography type (tract or place)")
	geoFetchCmd.Flags().String("cache-dir", "tiger-cache", "directory for downloaded archives")

	geoCmd.AddCommand(geoImportCmd)
	geoCmd.AddCommand(geoFetchCmd)
	geoCmd.AddCommand(geoShowCmd)
	rootCmd.AddCommand(geoCmd)
}
