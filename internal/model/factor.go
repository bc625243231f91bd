package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrNegativeWeight indicates a policy weight below zero.
var ErrNegativeWeight = eris.New("model: policy weight must be >= 0")

// Factor is a catalog entry describing a measurable attribute of a
// geography (e.g., violent crime rate, median commute minutes). Catalog
// entries are immutable once referenced by policies except for
// deactivation.
type Factor struct {
	ID                     int             `json:"id"`
	Name                   string          `json:"name"`
	DisplayName            string          `json:"display_name,omitempty"`
	Description            string          `json:"description,omitempty"`
	Source                 string          `json:"source,omitempty"`
	Category               string          `json:"category,omitempty"`
	Units                  string          `json:"units,omitempty"`
	DefaultScoringStrategy ScoringStrategy `json:"default_scoring_strategy"`
	IsActive               bool            `json:"is_active"`
}

// GeoFactorValue is the raw measurement of one factor for one geography.
// Rows are owned by the external ingestion process; the engine only
// reads them. NeedsFetch marks values queued for refresh upstream.
type GeoFactorValue struct {
	FactorID    int       `json:"factor_id"`
	GeoID       string    `json:"geo_id"`
	Value       float64   `json:"value"`
	NeedsFetch  bool      `json:"needs_fetch"`
	LastUpdated time.Time `json:"last_updated"`
}

// FactorPolicy configures how one factor contributes to one map's
// scoring: its weight, normalization strategy, and veto filter. The
// (map, factor) pair is unique.
type FactorPolicy struct {
	ID              string          `json:"id"`
	MapID           string          `json:"map_id"`
	FactorID        int             `json:"factor_id"`
	Weight          float64         `json:"weight"`
	ScoringStrategy ScoringStrategy `json:"scoring_strategy"`
	FilterStrategy  FilterStrategy  `json:"filter_strategy"`
	ScoreTipping1   *float64        `json:"score_tipping_1,omitempty"`
	ScoreTipping2   *float64        `json:"score_tipping_2,omitempty"`
	FilterTipping1  *float64        `json:"filter_tipping_1,omitempty"`
	FilterTipping2  *float64        `json:"filter_tipping_2,omitempty"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Validate rejects misconfigured policies before they are saved.
func (p *FactorPolicy) Validate() error {
	if _, err := ParseScoringStrategy(string(p.ScoringStrategy)); err != nil {
		return err
	}
	if _, err := ParseFilterStrategy(string(p.FilterStrategy)); err != nil {
		return err
	}
	if !p.ScoringStrategy.Supported() {
		return ErrUnsupportedStrategy
	}
	if p.Weight < 0 {
		return ErrNegativeWeight
	}
	return nil
}

// ScoreCacheEntry is the materialized result of normalizing and
// filter-evaluating one factor policy for one map geography. It is
// written only by the recompute orchestrator and never outlives its
// policy or map geography.
type ScoreCacheEntry struct {
	FactorPolicyID string  `json:"factor_policy_id"`
	MapGeoID       string  `json:"map_geo_id"`
	Score          float64 `json:"score"`
	RawValue       float64 `json:"raw_value"`
	IsFiltered     bool    `json:"is_filtered"`
}
