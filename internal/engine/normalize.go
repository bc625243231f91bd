// Package engine implements the factor scoring and aggregation core:
// normalization of raw factor values, filter (veto) evaluation, weighted
// aggregation into composite scores, and the recompute orchestrator that
// materializes results into the score cache.
package engine

import (
	"math"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

// Normalize converts a raw factor value to a score in [0,100] according
// to the policy's scoring strategy and tipping points. The second return
// is false when the strategy produces no score (no_scoring), in which
// case the factor contributes neither score nor weight to aggregation.
//
// Strategies that require a reference value (closer_to_value,
// farther_from_value) are rejected at policy save time and never reach
// this function; they also return false here.
func Normalize(raw float64, strategy model.ScoringStrategy, tip1, tip2 *float64) (float64, bool) {
	switch strategy {
	case model.ScoringHigherBetter:
		return normalizeAscending(raw, tip1, tip2), true
	case model.ScoringLowerBetter:
		return normalizeDescending(raw, tip1, tip2), true
	default:
		return 0, false
	}
}

// normalizeAscending maps tip1 to 0 and tip2 to 100 with linear
// interpolation in between. Without both tipping points it falls back to
// the default scaling clamp(raw*10, 0, 100).
func normalizeAscending(raw float64, tip1, tip2 *float64) float64 {
	if tip1 == nil || tip2 == nil {
		return clamp(raw*10, 0, 100)
	}
	lo, hi := *tip1, *tip2
	if hi <= lo {
		// Degenerate range: fixed midpoint keeps the result defined and
		// independent of argument order.
		return 50
	}
	switch {
	case raw <= lo:
		return 0
	case raw >= hi:
		return 100
	default:
		return (raw - lo) / (hi - lo) * 100
	}
}

// normalizeDescending is the mirror: tip1 maps to 100, tip2 maps to 0.
func normalizeDescending(raw float64, tip1, tip2 *float64) float64 {
	if tip1 == nil || tip2 == nil {
		return clamp(100-raw*10, 0, 100)
	}
	lo, hi := *tip1, *tip2
	if hi <= lo {
		return 50
	}
	switch {
	case raw <= lo:
		return 100
	case raw >= hi:
		return 0
	default:
		return 100 - (raw-lo)/(hi-lo)*100
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
