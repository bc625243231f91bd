package geo

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

// ParseShapefile reads a TIGER/Line shapefile and returns one Geography
// per record. Records without a GEOID or with a geometry that cannot be
// encoded are skipped and counted, not fatal: census extracts routinely
// carry a handful of degenerate shapes.
func ParseShapefile(shpPath, geoType string) ([]model.Geography, int, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "geo: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	attr := func(name string) string {
		idx, ok := fieldIdx[name]
		if !ok {
			return ""
		}
		val := strings.TrimRight(reader.Attribute(idx), "\x00")
		return strings.TrimSpace(val)
	}

	var geos []model.Geography
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		geoID := attr("geoid")
		if geoID == "" {
			skipped++
			continue
		}

		geometry, encErr := EncodeGeoJSON(shape)
		if encErr != nil || geometry == nil {
			skipped++
			continue
		}

		geos = append(geos, model.Geography{
			GeoID:    geoID,
			GeoType:  geoType,
			Name:     attr("name"),
			NAMELSAD: attr("namelsad"),
			ALand:    parseInt64(attr("aland")),
			AWater:   parseInt64(attr("awater")),
			IntPtLat: parseFloat(attr("intptlat")),
			IntPtLon: parseFloat(attr("intptlon")),
			Geometry: geometry,
		})
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return geos, skipped, nil
}

// parseInt64 parses a DBF numeric attribute, returning 0 for blanks.
func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// parseFloat parses a DBF numeric attribute. TIGER lat/lon fields carry
// a leading + sign which strconv accepts.
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
