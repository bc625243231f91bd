// Package store provides persistence for the suitability engine's
// entities behind a driver-agnostic interface. Postgres is the
// production backend; SQLite backs local single-user setups.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// FactorFilter narrows factor catalog listings.
type FactorFilter struct {
	Category   string `json:"category,omitempty"`
	ActiveOnly bool   `json:"active_only,omitempty"`
}

// MapGeoDetail couples a map membership with its geography's geometry,
// passed through opaquely to score results.
type MapGeoDetail struct {
	model.MapGeo
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// Store defines the persistence interface for the suitability engine.
type Store interface {
	// Factor catalog
	CreateFactor(ctx context.Context, f *model.Factor) (int, error)
	GetFactor(ctx context.Context, id int) (*model.Factor, error)
	ListFactors(ctx context.Context, filter FactorFilter) ([]model.Factor, error)
	DeactivateFactor(ctx context.Context, id int) error

	// Geographies
	UpsertGeography(ctx context.Context, g *model.Geography) error
	BulkUpsertGeographies(ctx context.Context, geos []model.Geography) (int64, error)
	GetGeography(ctx context.Context, geoID string) (*model.Geography, error)

	// Maps and membership
	CreateMap(ctx context.Context, m *model.Map) error
	GetMap(ctx context.Context, id string) (*model.Map, error)
	ListMaps(ctx context.Context) ([]model.Map, error)
	AddMapGeo(ctx context.Context, mg *model.MapGeo) error
	ListMapGeos(ctx context.Context, mapID string) ([]model.MapGeo, error)
	ListMapGeoDetails(ctx context.Context, mapID string) ([]MapGeoDetail, error)

	// Factor policies
	SavePolicy(ctx context.Context, p *model.FactorPolicy) error
	GetPolicy(ctx context.Context, id string) (*model.FactorPolicy, error)
	ListPolicies(ctx context.Context, mapID string, activeOnly bool) ([]model.FactorPolicy, error)
	DeactivatePolicy(ctx context.Context, id string) error

	// Raw factor values (read-mostly; writes come from ingestion)
	UpsertFactorValue(ctx context.Context, v *model.GeoFactorValue) error
	BulkUpsertFactorValues(ctx context.Context, values []model.GeoFactorValue) (int64, error)
	ListFactorValues(ctx context.Context, factorID int) ([]model.GeoFactorValue, error)

	// Score cache. ReplacePolicyScores is the orchestrator's sole write
	// path: it deletes the policy's existing cache rows and inserts the
	// new set in one transaction, so readers see either the full old or
	// full new batch.
	ReplacePolicyScores(ctx context.Context, policyID string, entries []model.ScoreCacheEntry) error
	ListMapScoreEntries(ctx context.Context, mapID string) ([]model.ScoreCacheEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
