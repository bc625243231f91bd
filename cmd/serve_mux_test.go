package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/settlesavvy/suitability-cli/internal/engine"
	"github.com/settlesavvy/suitability-cli/internal/model"
	"github.com/settlesavvy/suitability-cli/internal/store"
)

func fptr(f float64) *float64 { return &f }

// newServeMux seeds a SQLite-backed orchestrator with one map of two
// geographies and a single higher_better commute factor.
func newServeMux(t *testing.T) *http.ServeMux {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	_, err = st.BulkUpsertGeographies(ctx, []model.Geography{
		{GeoID: "G1", GeoType: "tract", Name: "Tract 1"},
		{GeoID: "G2", GeoType: "tract", Name: "Tract 2"},
	})
	require.NoError(t, err)

	require.NoError(t, st.CreateMap(ctx, &model.Map{ID: "map-1", Name: "Relocation"}))
	require.NoError(t, st.AddMapGeo(ctx, &model.MapGeo{ID: "mg-1", MapID: "map-1", GeoID: "G1", Name: "Tract 1"}))
	require.NoError(t, st.AddMapGeo(ctx, &model.MapGeo{ID: "mg-2", MapID: "map-1", GeoID: "G2", Name: "Tract 2"}))

	factorID, err := st.CreateFactor(ctx, &model.Factor{
		Name:                   "park_access",
		DefaultScoringStrategy: model.ScoringHigherBetter,
		IsActive:               true,
	})
	require.NoError(t, err)

	require.NoError(t, st.SavePolicy(ctx, &model.FactorPolicy{
		ID:              "p1",
		MapID:           "map-1",
		FactorID:        factorID,
		Weight:          2,
		ScoringStrategy: model.ScoringHigherBetter,
		FilterStrategy:  model.FilterNone,
		ScoreTipping1:   fptr(0),
		ScoreTipping2:   fptr(100),
		IsActive:        true,
	}))

	require.NoError(t, st.UpsertFactorValue(ctx, &model.GeoFactorValue{FactorID: factorID, GeoID: "G1", Value: 80}))
	require.NoError(t, st.UpsertFactorValue(ctx, &model.GeoFactorValue{FactorID: factorID, GeoID: "G2", Value: 30}))

	return buildMux(engine.NewOrchestrator(st, 2))
}

func TestBuildMuxHealth(t *testing.T) {
	mux := newServeMux(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMuxRecomputePolicy(t *testing.T) {
	mux := newServeMux(t)

	req := httptest.NewRequest(http.MethodPost, "/policies/p1/recompute", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var summary engine.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 0, summary.Skipped)
}

func TestBuildMuxRecomputePolicyNotFound(t *testing.T) {
	mux := newServeMux(t)

	req := httptest.NewRequest(http.MethodPost, "/policies/missing/recompute", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "not found")
}

func TestBuildMuxMapScores(t *testing.T) {
	mux := newServeMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/maps/map-1/recompute", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/maps/map-1/scores", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var scores []model.GeoScore
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &scores))
	require.Len(t, scores, 2)

	byGeo := map[string]model.GeoScore{}
	for _, s := range scores {
		byGeo[s.GeoID] = s
	}
	assert.Equal(t, 80, byGeo["G1"].Score)
	assert.Equal(t, 30, byGeo["G2"].Score)
	assert.False(t, byGeo["G1"].IsFiltered)
}

func TestBuildMuxMapScoresUnknownMapIsEmpty(t *testing.T) {
	mux := newServeMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/maps/missing/scores", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestBuildMuxMethodNotAllowed(t *testing.T) {
	mux := newServeMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/policies/p1/recompute", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRateLimitedRejectsBurst(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	handler := rateLimited(limiter, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "rate limit exceeded")
}
