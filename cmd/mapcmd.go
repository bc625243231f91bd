package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Manage suitability maps",
	Long:  "Commands for creating maps, listing them, and managing geography membership.",
}

// -- map create --

var mapCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new suitability map",
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

		lat, _ := cmd.Flags().GetFloat64("center-lat")
		lng, _ := cmd.Flags().GetFloat64("center-lng")
		zoom, _ := cmd.Flags().GetFloat64("zoom")
		createdBy, _ := cmd.Flags().GetString("created-by")

		now := time.Now().UTC()
		m := &model.Map{
			ID:        uuid.NewString(),
			Name:      args[0],
			CenterLat: lat,
			CenterLng: lng,
			ZoomLevel: zoom,
			CreatedBy: createdBy,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := st.CreateMap(ctx, m); err != nil {
			return eris.Wrap(err, "map create")
		}

		fmt.Printf("Created map %s (%s)\n", m.ID, m.Name)
		return nil
	},
}

// -- map list --

var mapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List maps",
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

		maps, err := st.ListMaps(ctx)
		if err != nil {
			return eris.Wrap(err, "map list")
		}

		if len(maps) == 0 {
			fmt.Fprintln(os.Stderr, "No maps found.")
			return nil
		}

		formatMapList(os.Stdout, maps)
		return nil
	},
}

// -- map show --

var mapShowCmd = &cobra.Command{
	Use:   "show <map-id>",
	Short: "Show a map with its member geographies",
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

		m, err := st.GetMap(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "map show")
		}
		geos, err := st.ListMapGeos(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "map show")
		}

		out := struct {
			Map  *model.Map     `json:"map"`
			Geos []model.MapGeo `json:"geos"`
		}{m, geos}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// -- map add-geo --

var mapAddGeoCmd = &cobra.Command{
	Use:   "add-geo <map-id> <geo-id>",
	Short: "Add a geography to a map",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mapID, geoID := args[0], args[1]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if _, err := st.GetMap(ctx, mapID); err != nil {
			return eris.Wrap(err, "map add-geo")
		}
		g, err := st.GetGeography(ctx, geoID)
		if err != nil {
			return eris.Wrap(err, "map add-geo")
		}

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = g.NAMELSAD
			if name == "" {
				name = g.Name
			}
		}

		if err := st.AddMapGeo(ctx, &model.MapGeo{
			ID:    uuid.NewString(),
			MapID: mapID,
			GeoID: geoID,
			Name:  name,
		}); err != nil {
			return eris.Wrap(err, "map add-geo")
		}

		fmt.Printf("Added %s (%s) to map %s\n", geoID, name, mapID)
		return nil
	},
}

func init() {
	mapCreateCmd.Flags().Float64("center-lat", 0, "map center latitude")
	mapCreateCmd.Flags().Float64("center-lng", 0, "map center longitude")
	mapCreateCmd.Flags().Float64("zoom", 10, "initial zoom level")
	mapCreateCmd.Flags().String("created-by", "", "owner identifier")

	mapAddGeoCmd.Flags().String("name", "", "display name (defaults to the geography's legal name)")

	mapCmd.AddCommand(mapCreateCmd)
	mapCmd.AddCommand(mapListCmd)
	mapCmd.AddCommand(mapShowCmd)
	mapCmd.AddCommand(mapAddGeoCmd)
	rootCmd.AddCommand(mapCmd)
}

// formatMapList writes a tabular map listing to w.
func formatMapList(out io.Writer, maps []model.Map) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCENTER\tZOOM\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t----\t-------")

	for _, m := range maps {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.4f,%.4f\t%.0f\t%s\n",
			truncateID(m.ID), m.Name, m.CenterLat, m.CenterLng, m.ZoomLevel,
			m.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
