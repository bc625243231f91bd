package engine

import "math"

// Contribution is one factor policy's input to a geography's composite
// score: its configured weight, the cached normalized score, and whether
// the filter evaluator vetoed the geography for this factor.
type Contribution struct {
	Weight float64
	Score  float64
	Vetoed bool
}

// Aggregate is the composite result for one geography.
type Aggregate struct {
	Score      int
	IsFiltered bool
}

// Combine folds per-factor contributions into one composite score.
//
// A veto from any contributing factor excludes the geography entirely:
// the result is filtered with score 0, regardless of other factors.
// Otherwise the composite is the weighted mean of the weight>0
// contributions, rounded to an integer only at this boundary. A
// geography with no eligible weight (no contributions, or all weights
// zero) is reported filtered rather than scored.
func Combine(contribs []Contribution) Aggregate {
	for _, c := range contribs {
		if c.Vetoed {
			return Aggregate{Score: 0, IsFiltered: true}
		}
	}

	var weightSum, weighted float64
	for _, c := range contribs {
		if c.Weight <= 0 {
			continue
		}
		weightSum += c.Weight
		weighted += c.Score * c.Weight
	}
	if weightSum == 0 {
		return Aggregate{Score: 0, IsFiltered: true}
	}

	return Aggregate{Score: int(math.Round(weighted / weightSum))}
}
