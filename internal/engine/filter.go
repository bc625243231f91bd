package engine

import "github.com/settlesavvy/suitability-cli/internal/model"

// Vetoed evaluates a filter policy against the raw factor value and
// reports whether the geography should be excluded from the map.
//
// A strategy missing a tipping point it requires degrades to no_filter
// so partially configured policies still produce usable cache entries.
func Vetoed(raw float64, strategy model.FilterStrategy, tip1, tip2 *float64) bool {
	switch strategy {
	case model.FilterAboveThreshold:
		return tip1 != nil && raw < *tip1
	case model.FilterBelowThreshold:
		return tip1 != nil && raw > *tip1
	case model.FilterBetweenThresholds:
		if tip1 == nil || tip2 == nil {
			return false
		}
		return raw < *tip1 || raw > *tip2
	case model.FilterOutsideThresholds:
		if tip1 == nil || tip2 == nil {
			return false
		}
		return *tip1 <= raw && raw <= *tip2
	default:
		return false
	}
}
