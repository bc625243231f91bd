package geo

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

// ParseValuesCSV reads raw factor values from a CSV stream. The file must
// have a header row containing geo_id and value columns; column order is
// free. Rows with a blank geo_id or an unparseable value are skipped and
// counted.
func ParseValuesCSV(r io.Reader, factorID int) ([]model.GeoFactorValue, int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, eris.Wrap(err, "geo: read CSV header")
	}

	geoIdx, valIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "geo_id", "geoid":
			geoIdx = i
		case "value":
			valIdx = i
		}
	}
	if geoIdx < 0 || valIdx < 0 {
		return nil, 0, eris.New("geo: CSV header must contain geo_id and value columns")
	}

	var values []model.GeoFactorValue
	var skipped int

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, eris.Wrap(err, "geo: read CSV record")
		}
		if geoIdx >= len(record) || valIdx >= len(record) {
			skipped++
			continue
		}

		geoID := strings.TrimSpace(record[geoIdx])
		if geoID == "" {
			skipped++
			continue
		}

		val, err := strconv.ParseFloat(strings.TrimSpace(record[valIdx]), 64)
		if err != nil {
			skipped++
			continue
		}

		values = append(values, model.GeoFactorValue{
			FactorID: factorID,
			GeoID:    geoID,
			Value:    val,
		})
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped CSV rows",
			zap.Int("factor_id", factorID),
			zap.Int("skipped", skipped),
		)
	}

	return values, skipped, nil
}
