package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresStore(mock), mock
}

func fptr(f float64) *float64 { return &f }

func TestPostgresStore_CreateFactor(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO factors`).
		WithArgs("crime_rate", "Crime Rate", "Violent crimes per 1k", "FBI UCR", "safety", "per_1k", "lower_better", true).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(7))

	id, err := s.CreateFactor(context.Background(), &model.Factor{
		Name:                   "crime_rate",
		DisplayName:            "Crime Rate",
		Description:            "Violent crimes per 1k",
		Source:                 "FBI UCR",
		Category:               "safety",
		Units:                  "per_1k",
		DefaultScoringStrategy: model.ScoringLowerBetter,
		IsActive:               true,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetFactor_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM factors WHERE id = \$1`).
		WithArgs(99).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetFactor(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListFactors(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{"id", "name", "display_name", "description", "source", "category", "units", "default_scoring_strategy", "is_active"}
	mock.ExpectQuery(`SELECT .+ FROM factors`).
		WithArgs("safety", true).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(1, "crime_rate", "Crime Rate", "", "", "safety", "per_1k", model.ScoringLowerBetter, true).
			AddRow(2, "street_lights", "Street Lights", "", "", "safety", "count", model.ScoringHigherBetter, true))

	factors, err := s.ListFactors(context.Background(), FactorFilter{Category: "safety", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, factors, 2)
	assert.Equal(t, "crime_rate", factors[0].Name)
	assert.Equal(t, model.ScoringHigherBetter, factors[1].DefaultScoringStrategy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeactivateFactor_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE factors SET is_active = false`).
		WithArgs(42).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.DeactivateFactor(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SavePolicy_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now()
	p := &model.FactorPolicy{
		ID:              "pol-1",
		MapID:           "map-1",
		FactorID:        7,
		Weight:          2,
		ScoringStrategy: model.ScoringLowerBetter,
		FilterStrategy:  model.FilterBelowThreshold,
		ScoreTipping1:   fptr(0),
		ScoreTipping2:   fptr(100),
		FilterTipping1:  fptr(50),
		IsActive:        true,
		CreatedAt:       now,
	}

	mock.ExpectExec(`INSERT INTO factor_policies .+ ON CONFLICT \(map_id, factor_id\) DO UPDATE`).
		WithArgs("pol-1", "map-1", 7, 2.0, "lower_better", "below_threshold",
			p.ScoreTipping1, p.ScoreTipping2, p.FilterTipping1, (*float64)(nil), true, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SavePolicy(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SavePolicy_RejectsUnsupportedStrategy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	p := &model.FactorPolicy{
		ID:              "pol-1",
		MapID:           "map-1",
		FactorID:        7,
		Weight:          1,
		ScoringStrategy: model.ScoringCloserToValue,
		FilterStrategy:  model.FilterNone,
	}

	err := s.SavePolicy(context.Background(), p)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrUnsupportedStrategy))
	// No SQL must run for a rejected policy
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPolicy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now()
	cols := []string{"id", "map_id", "factor_id", "weight", "scoring_strategy", "filter_strategy",
		"score_tipping_1", "score_tipping_2", "filter_tipping_1", "filter_tipping_2",
		"is_active", "created_at"}
	mock.ExpectQuery(`SELECT .+ FROM factor_policies WHERE id = \$1`).
		WithArgs("pol-1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("pol-1", "map-1", 7, 2.0, model.ScoringLowerBetter, model.FilterBelowThreshold,
				fptr(0), fptr(100), fptr(50), (*float64)(nil), true, now))

	p, err := s.GetPolicy(context.Background(), "pol-1")
	require.NoError(t, err)
	assert.Equal(t, "map-1", p.MapID)
	assert.Equal(t, model.ScoringLowerBetter, p.ScoringStrategy)
	require.NotNil(t, p.FilterTipping1)
	assert.InDelta(t, 50, *p.FilterTipping1, 0.001)
	assert.Nil(t, p.FilterTipping2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPolicy_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM factor_policies WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetPolicy(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplacePolicyScores(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM score_cache WHERE factor_policy_id = \$1`).
		WithArgs("pol-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO score_cache`).
		WithArgs("pol-1", "mg-1", 50.0, 5.0, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO score_cache`).
		WithArgs("pol-1", "mg-2", 100.0, 12.0, true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.ReplacePolicyScores(context.Background(), "pol-1", []model.ScoreCacheEntry{
		{FactorPolicyID: "pol-1", MapGeoID: "mg-1", Score: 50, RawValue: 5},
		{FactorPolicyID: "pol-1", MapGeoID: "mg-2", Score: 100, RawValue: 12, IsFiltered: true},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplacePolicyScores_EmptyBatchClearsCache(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM score_cache WHERE factor_policy_id = \$1`).
		WithArgs("pol-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	err := s.ReplacePolicyScores(context.Background(), "pol-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplacePolicyScores_RollsBackOnInsertError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM score_cache`).
		WithArgs("pol-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO score_cache`).
		WithArgs("pol-1", "mg-1", 50.0, 5.0, false).
		WillReturnError(eris.New("insert failed"))
	mock.ExpectRollback()

	err := s.ReplacePolicyScores(context.Background(), "pol-1", []model.ScoreCacheEntry{
		{FactorPolicyID: "pol-1", MapGeoID: "mg-1", Score: 50, RawValue: 5},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListMapScoreEntries(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cols := []string{"factor_policy_id", "map_geo_id", "score", "raw_value", "is_filtered"}
	mock.ExpectQuery(`SELECT .+ FROM score_cache sc\s+JOIN factor_policies fp`).
		WithArgs("map-1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("pol-1", "mg-1", 50.0, 5.0, false).
			AddRow("pol-2", "mg-1", 80.0, 20.0, false))

	entries, err := s.ListMapScoreEntries(context.Background(), "map-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "pol-1", entries[0].FactorPolicyID)
	assert.InDelta(t, 80, entries[1].Score, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListMapGeoDetails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	geometry := []byte(`{"type":"MultiPolygon","coordinates":[]}`)
	cols := []string{"id", "map_id", "geo_id", "name", "geometry"}
	mock.ExpectQuery(`SELECT .+ FROM map_geos mg\s+JOIN geographies g`).
		WithArgs("map-1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("mg-1", "map-1", "12086001401", "Tract 14.01", geometry))

	details, err := s.ListMapGeoDetails(context.Background(), "map-1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "12086001401", details[0].GeoID)
	assert.JSONEq(t, string(geometry), string(details[0].Geometry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertFactorValue(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO geo_factor_values .+ ON CONFLICT \(factor_id, geo_id\) DO UPDATE`).
		WithArgs(7, "12086001401", 8.5, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertFactorValue(context.Background(), &model.GeoFactorValue{
		FactorID: 7, GeoID: "12086001401", Value: 8.5,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS factors`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
