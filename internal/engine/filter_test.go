package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

func TestVetoedAboveThreshold(t *testing.T) {
	// above_threshold keeps geographies at or above tipping_1
	assert.True(t, Vetoed(30, model.FilterAboveThreshold, ptr(50), nil))
	assert.False(t, Vetoed(50, model.FilterAboveThreshold, ptr(50), nil))
	assert.False(t, Vetoed(80, model.FilterAboveThreshold, ptr(50), nil))
}

func TestVetoedBelowThreshold(t *testing.T) {
	assert.True(t, Vetoed(80, model.FilterBelowThreshold, ptr(50), nil))
	assert.False(t, Vetoed(50, model.FilterBelowThreshold, ptr(50), nil))
	assert.False(t, Vetoed(30, model.FilterBelowThreshold, ptr(50), nil))
}

func TestVetoedBetweenThresholds(t *testing.T) {
	tip1, tip2 := ptr(10.0), ptr(20.0)
	assert.True(t, Vetoed(5, model.FilterBetweenThresholds, tip1, tip2))
	assert.False(t, Vetoed(10, model.FilterBetweenThresholds, tip1, tip2))
	assert.False(t, Vetoed(15, model.FilterBetweenThresholds, tip1, tip2))
	assert.False(t, Vetoed(20, model.FilterBetweenThresholds, tip1, tip2))
	assert.True(t, Vetoed(25, model.FilterBetweenThresholds, tip1, tip2))
}

func TestVetoedOutsideThresholds(t *testing.T) {
	tip1, tip2 := ptr(10.0), ptr(20.0)
	assert.False(t, Vetoed(5, model.FilterOutsideThresholds, tip1, tip2))
	assert.True(t, Vetoed(10, model.FilterOutsideThresholds, tip1, tip2))
	assert.True(t, Vetoed(15, model.FilterOutsideThresholds, tip1, tip2))
	assert.True(t, Vetoed(20, model.FilterOutsideThresholds, tip1, tip2))
	assert.False(t, Vetoed(25, model.FilterOutsideThresholds, tip1, tip2))
}

func TestVetoedNoFilter(t *testing.T) {
	assert.False(t, Vetoed(0, model.FilterNone, ptr(50), ptr(60)))
	assert.False(t, Vetoed(1e9, model.FilterNone, nil, nil))
}

func TestVetoedMissingTippingPoints(t *testing.T) {
	// A filter missing a required tipping point degrades to no_filter
	assert.False(t, Vetoed(30, model.FilterAboveThreshold, nil, nil))
	assert.False(t, Vetoed(80, model.FilterBelowThreshold, nil, nil))
	assert.False(t, Vetoed(5, model.FilterBetweenThresholds, ptr(10), nil))
	assert.False(t, Vetoed(15, model.FilterOutsideThresholds, nil, ptr(20)))
}
