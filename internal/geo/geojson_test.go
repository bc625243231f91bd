package geo

import (
	"encoding/json"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geometryType(t *testing.T, data []byte) string {
	t.Helper()
	var obj struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(data, &obj))
	return obj.Type
}

func TestEncodeGeoJSON_Point(t *testing.T) {
	p := &shp.Point{X: -80.19, Y: 25.77}
	data, err := EncodeGeoJSON(p)

	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "Point", geometryType(t, data))
}

func TestEncodeGeoJSON_Polygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: -80.0, Y: 25.0},
			{X: -80.0, Y: 26.0},
			{X: -79.0, Y: 26.0},
			{X: -79.0, Y: 25.0},
			{X: -80.0, Y: 25.0}, // closed ring
		},
	}

	data, err := EncodeGeoJSON(poly)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "MultiPolygon", geometryType(t, data))
}

func TestEncodeGeoJSON_PolyLine(t *testing.T) {
	pl := &shp.PolyLine{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: -80.0, Y: 25.0},
			{X: -80.1, Y: 25.1},
			{X: -80.2, Y: 25.2},
		},
	}

	data, err := EncodeGeoJSON(pl)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "MultiLineString", geometryType(t, data))
}

func TestEncodeGeoJSON_MultiPartPolygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			// Ring 1
			{X: -80.0, Y: 25.0},
			{X: -80.0, Y: 26.0},
			{X: -79.0, Y: 26.0},
			{X: -79.0, Y: 25.0},
			{X: -80.0, Y: 25.0},
			// Ring 2
			{X: -81.0, Y: 26.0},
			{X: -81.0, Y: 27.0},
			{X: -80.0, Y: 27.0},
			{X: -80.0, Y: 26.0},
			{X: -81.0, Y: 26.0},
		},
	}

	data, err := EncodeGeoJSON(poly)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "MultiPolygon", geometryType(t, data))
}

func TestEncodeGeoJSON_NilShape(t *testing.T) {
	data, err := EncodeGeoJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestEncodeGeoJSON_EmptyPolygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 0,
		Parts:    nil,
		Points:   nil,
	}

	data, err := EncodeGeoJSON(poly)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestEncodeGeoJSON_EmptyPolyLine(t *testing.T) {
	pl := &shp.PolyLine{
		NumParts: 0,
		Parts:    nil,
		Points:   nil,
	}

	data, err := EncodeGeoJSON(pl)
	require.NoError(t, err)
	assert.Nil(t, data)
}
