package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValuesCSV(t *testing.T) {
	csv := `geo_id,value
12086001401,8.5
12086001402,12.1
12086001403,0
`
	values, skipped, err := ParseValuesCSV(strings.NewReader(csv), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, values, 3)

	assert.Equal(t, 7, values[0].FactorID)
	assert.Equal(t, "12086001401", values[0].GeoID)
	assert.InDelta(t, 8.5, values[0].Value, 0.001)
	assert.InDelta(t, 0.0, values[2].Value, 0.001)
}

func TestParseValuesCSV_ColumnOrderFree(t *testing.T) {
	csv := `value,notes,GEOID
3.25,downtown,12086001401
`
	values, skipped, err := ParseValuesCSV(strings.NewReader(csv), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, values, 1)
	assert.Equal(t, "12086001401", values[0].GeoID)
	assert.InDelta(t, 3.25, values[0].Value, 0.001)
}

func TestParseValuesCSV_SkipsBadRows(t *testing.T) {
	csv := `geo_id,value
12086001401,8.5
,9.9
12086001402,not-a-number
12086001403,4.0
`
	values, skipped, err := ParseValuesCSV(strings.NewReader(csv), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, values, 2)
	assert.Equal(t, "12086001401", values[0].GeoID)
	assert.Equal(t, "12086001403", values[1].GeoID)
}

func TestParseValuesCSV_MissingColumns(t *testing.T) {
	csv := `geography,score
12086001401,8.5
`
	_, _, err := ParseValuesCSV(strings.NewReader(csv), 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "geo_id and value")
}

func TestParseValuesCSV_EmptyBody(t *testing.T) {
	values, skipped, err := ParseValuesCSV(strings.NewReader("geo_id,value\n"), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Empty(t, values)
}
