package model

import "github.com/rotisserie/eris"

// ScoringStrategy controls how a raw factor value is normalized to 0-100.
type ScoringStrategy string

const (
	ScoringHigherBetter     ScoringStrategy = "higher_better"
	ScoringLowerBetter      ScoringStrategy = "lower_better"
	ScoringCloserToValue    ScoringStrategy = "closer_to_value"
	ScoringFartherFromValue ScoringStrategy = "farther_from_value"
	ScoringNone             ScoringStrategy = "no_scoring"
)

// FilterStrategy controls when a geography is vetoed based on its raw value.
type FilterStrategy string

const (
	FilterAboveThreshold    FilterStrategy = "above_threshold"
	FilterBelowThreshold    FilterStrategy = "below_threshold"
	FilterBetweenThresholds FilterStrategy = "between_thresholds"
	FilterOutsideThresholds FilterStrategy = "outside_thresholds"
	FilterNone              FilterStrategy = "no_filter"
)

// ErrUnknownStrategy indicates a strategy value outside the known set.
var ErrUnknownStrategy = eris.New("model: unknown strategy")

// ErrUnsupportedStrategy indicates a strategy that parses but cannot be
// used by a policy. closer_to_value and farther_from_value need a
// reference value the policy schema does not carry, so they are rejected
// at save time rather than silently defaulted.
var ErrUnsupportedStrategy = eris.New("model: unsupported scoring strategy")

// ParseScoringStrategy validates a scoring strategy string.
func ParseScoringStrategy(s string) (ScoringStrategy, error) {
	switch ScoringStrategy(s) {
	case ScoringHigherBetter, ScoringLowerBetter, ScoringCloserToValue,
		ScoringFartherFromValue, ScoringNone:
		return ScoringStrategy(s), nil
	}
	return "", eris.Wrapf(ErrUnknownStrategy, "scoring strategy %q", s)
}

// ParseFilterStrategy validates a filter strategy string.
func ParseFilterStrategy(s string) (FilterStrategy, error) {
	switch FilterStrategy(s) {
	case FilterAboveThreshold, FilterBelowThreshold, FilterBetweenThresholds,
		FilterOutsideThresholds, FilterNone:
		return FilterStrategy(s), nil
	}
	return "", eris.Wrapf(ErrUnknownStrategy, "filter strategy %q", s)
}

// Supported reports whether the strategy can actually drive normalization.
func (s ScoringStrategy) Supported() bool {
	switch s {
	case ScoringHigherBetter, ScoringLowerBetter, ScoringNone:
		return true
	}
	return false
}

// ScoringStrategies lists all recognized scoring strategy values.
func ScoringStrategies() []ScoringStrategy {
	return []ScoringStrategy{
		ScoringHigherBetter, ScoringLowerBetter, ScoringCloserToValue,
		ScoringFartherFromValue, ScoringNone,
	}
}

// FilterStrategies lists all recognized filter strategy values.
func FilterStrategies() []FilterStrategy {
	return []FilterStrategy{
		FilterAboveThreshold, FilterBelowThreshold, FilterBetweenThresholds,
		FilterOutsideThresholds, FilterNone,
	}
}
