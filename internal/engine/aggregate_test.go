package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineWeightedMean(t *testing.T) {
	// (80*1 + 40*3) / 4 = 50
	agg := Combine([]Contribution{
		{Weight: 1, Score: 80},
		{Weight: 3, Score: 40},
	})
	assert.False(t, agg.IsFiltered)
	assert.Equal(t, 50, agg.Score)

	// Equal weights: (80 + 40) / 2 = 60
	agg = Combine([]Contribution{
		{Weight: 1, Score: 80},
		{Weight: 1, Score: 40},
	})
	assert.False(t, agg.IsFiltered)
	assert.Equal(t, 60, agg.Score)
}

func TestCombineRoundsAtBoundary(t *testing.T) {
	// (70 + 65) / 2 = 67.5 rounds to 68
	agg := Combine([]Contribution{
		{Weight: 1, Score: 70},
		{Weight: 1, Score: 65},
	})
	assert.Equal(t, 68, agg.Score)
}

func TestCombineVetoDominates(t *testing.T) {
	agg := Combine([]Contribution{
		{Weight: 1, Score: 100},
		{Weight: 5, Score: 90, Vetoed: true},
		{Weight: 2, Score: 100},
	})
	assert.True(t, agg.IsFiltered)
	assert.Equal(t, 0, agg.Score)

	// Veto on a zero-weight contribution still excludes the geography
	agg = Combine([]Contribution{
		{Weight: 1, Score: 100},
		{Weight: 0, Vetoed: true},
	})
	assert.True(t, agg.IsFiltered)
	assert.Equal(t, 0, agg.Score)
}

func TestCombineZeroWeightIgnored(t *testing.T) {
	agg := Combine([]Contribution{
		{Weight: 0, Score: 10},
		{Weight: 2, Score: 70},
	})
	assert.False(t, agg.IsFiltered)
	assert.Equal(t, 70, agg.Score)
}

func TestCombineNoEligibleWeight(t *testing.T) {
	assert.Equal(t, Aggregate{Score: 0, IsFiltered: true}, Combine(nil))
	assert.Equal(t, Aggregate{Score: 0, IsFiltered: true}, Combine([]Contribution{
		{Weight: 0, Score: 90},
		{Weight: 0, Score: 10},
	}))
}

func TestCombineEndToEndScenario(t *testing.T) {
	// G1: two policies, no vetoes, composite (50+80)/2 = 65
	g1 := Combine([]Contribution{
		{Weight: 1, Score: 50},
		{Weight: 1, Score: 80},
	})
	assert.False(t, g1.IsFiltered)
	assert.Equal(t, 65, g1.Score)

	// G2: second policy vetoes, score ignored
	g2 := Combine([]Contribution{
		{Weight: 1, Score: 100},
		{Weight: 1, Score: 70, Vetoed: true},
	})
	assert.True(t, g2.IsFiltered)
	assert.Equal(t, 0, g2.Score)
}
