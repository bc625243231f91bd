package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

// Score band colors for console output.
var (
	strongColor   = color.New(color.FgGreen, color.Bold)
	goodColor     = color.New(color.FgCyan)
	weakColor     = color.New(color.FgYellow)
	poorColor     = color.New(color.FgRed)
	filteredColor = color.New(color.FgHiBlack)
)

var scoresCmd = &cobra.Command{
	Use:   "scores <map-id>",
	Short: "Show composite suitability scores for a map",
	Long:  "Aggregates cached per-factor scores into one weighted composite per geography and ranks the results. Vetoed geographies sort last.",
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

		orch := newOrchestrator(st)
		scores, err := orch.MapScores(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "scores")
		}

		if len(scores) == 0 {
			fmt.Fprintln(os.Stderr, "No geographies in map.")
			return nil
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		withGeometry, _ := cmd.Flags().GetBool("geometry")
		if !withGeometry {
			for i := range scores {
				scores[i].Geometry = nil
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(scores)
		}

		rankScores(scores)
		return renderScoreTable(scores)
	},
}

func init() {
	scoresCmd.Flags().Bool("json", false, "output JSON instead of a table")
	scoresCmd.Flags().Bool("geometry", false, "include GeoJSON geometry in JSON output")
	rootCmd.AddCommand(scoresCmd)
}

// rankScores orders by score descending with vetoed geographies last,
// ties broken by geo ID for stable output.
func rankScores(scores []model.GeoScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].IsFiltered != scores[j].IsFiltered {
			return !scores[i].IsFiltered
		}
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].GeoID < scores[j].GeoID
	})
}

// scoreLabel returns a colored suitability band for console output.
func scoreLabel(s model.GeoScore) string {
	if s.IsFiltered {
		return filteredColor.Sprint("Filtered")
	}
	switch {
	case s.Score >= 80:
		return strongColor.Sprint("Strong")
	case s.Score >= 60:
		return goodColor.Sprint("Good")
	case s.Score >= 40:
		return weakColor.Sprint("Weak")
	default:
		return poorColor.Sprint("Poor")
	}
}

// renderScoreTable writes the ranked scores as a console table.
func renderScoreTable(scores []model.GeoScore) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Rank", "Geo ID", "Name", "Score", "Band"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, s := range scores {
		scoreText := strconv.Itoa(s.Score)
		if s.IsFiltered {
			scoreText = "-"
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			s.GeoID,
			s.Name,
			scoreText,
			scoreLabel(s),
		})
	}

	if err := table.Bulk(data); err != nil {
		return eris.Wrap(err, "scores: build table")
	}
	return eris.Wrap(table.Render(), "scores: render table")
}
