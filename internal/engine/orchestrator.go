package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/settlesavvy/suitability-cli/internal/model"
	"github.com/settlesavvy/suitability-cli/internal/resilience"
	"github.com/settlesavvy/suitability-cli/internal/store"
)

// Summary reports the outcome of a recompute batch. Skipped counts
// geographies with no raw value for the policy's factor; they get no
// cache row and are simply absent from aggregation.
type Summary struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Orchestrator drives batch (re)computation of the score cache and
// serves aggregated map scores from it. It is the only writer of score
// cache rows.
type Orchestrator struct {
	store   store.Store
	workers int
	retry   resilience.RetryConfig
}

// NewOrchestrator creates an Orchestrator computing with up to workers
// concurrent goroutines per batch.
func NewOrchestrator(st store.Store, workers int) *Orchestrator {
	if workers <= 0 {
		workers = 4
	}
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = resilience.IsRetryableWrite
	return &Orchestrator{store: st, workers: workers, retry: retry}
}

// SetRetryAttempts overrides the retry budget for score cache commits.
// Values below 1 keep the default.
func (o *Orchestrator) SetRetryAttempts(n int) {
	if n >= 1 {
		o.retry.MaxAttempts = n
	}
}

// RecomputePolicy recomputes the score cache for every geography of the
// policy's map and commits the batch atomically. Geographies without a
// raw value are skipped and counted; stale cache rows whose backing
// value disappeared are dropped by the same commit. Re-running with
// unchanged inputs rewrites identical rows.
func (o *Orchestrator) RecomputePolicy(ctx context.Context, policyID string) (*Summary, error) {
	policy, err := o.store.GetPolicy(ctx, policyID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: load policy %s", policyID)
	}
	if err := policy.Validate(); err != nil {
		return nil, eris.Wrapf(err, "engine: policy %s", policyID)
	}

	mapGeos, err := o.store.ListMapGeos(ctx, policy.MapID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: list map geos for map %s", policy.MapID)
	}

	values, err := o.factorValues(ctx, policy.FactorID)
	if err != nil {
		return nil, err
	}

	// Keyed working set: duplicate writes within one batch indicate a
	// membership integrity problem and are caught before commit.
	var (
		mu      sync.Mutex
		entries = make(map[string]model.ScoreCacheEntry, len(mapGeos))
		skipped int
		dupErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, mg := range mapGeos {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			raw, ok := values[mg.GeoID]
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				skipped++
				return nil
			}
			if _, exists := entries[mg.ID]; exists {
				dupErr = eris.Errorf("engine: duplicate cache entry for map geo %s", mg.ID)
				return dupErr
			}
			entries[mg.ID] = computeEntry(policy, mg.ID, raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if dupErr != nil {
			return nil, dupErr
		}
		return nil, eris.Wrapf(err, "engine: recompute policy %s", policyID)
	}

	batch := make([]model.ScoreCacheEntry, 0, len(entries))
	for _, e := range entries {
		batch = append(batch, e)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].MapGeoID < batch[j].MapGeoID })

	// One atomic commit per invocation; concurrent recomputes of the
	// same policy serialize via last-writer-wins, retried on write
	// conflicts.
	err = resilience.Do(ctx, o.retry, func(ctx context.Context) error {
		return o.store.ReplacePolicyScores(ctx, policyID, batch)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "engine: commit scores for policy %s", policyID)
	}

	zap.L().Info("engine: recompute complete",
		zap.String("policy_id", policyID),
		zap.Int("updated", len(batch)),
		zap.Int("skipped", skipped),
	)
	return &Summary{Updated: len(batch), Skipped: skipped}, nil
}

// RecomputeMap recomputes all active policies of a map in turn and
// returns the summed summary.
func (o *Orchestrator) RecomputeMap(ctx context.Context, mapID string) (*Summary, error) {
	policies, err := o.store.ListPolicies(ctx, mapID, true)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: list policies for map %s", mapID)
	}

	total := &Summary{}
	for _, p := range policies {
		s, err := o.RecomputePolicy(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		total.Updated += s.Updated
		total.Skipped += s.Skipped
	}
	return total, nil
}

// MapScores aggregates cached per-factor scores into one composite score
// per geography of the map. Only active policies contribute; a policy
// with no cache row for a geography neither scores nor vetoes it.
// Results follow the map geo listing order; geometry is passed through
// from the geography record untouched.
func (o *Orchestrator) MapScores(ctx context.Context, mapID string) ([]model.GeoScore, error) {
	details, err := o.store.ListMapGeoDetails(ctx, mapID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: list map geos for map %s", mapID)
	}
	policies, err := o.store.ListPolicies(ctx, mapID, true)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: list policies for map %s", mapID)
	}
	entries, err := o.store.ListMapScoreEntries(ctx, mapID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: list score entries for map %s", mapID)
	}

	policyByID := make(map[string]model.FactorPolicy, len(policies))
	for _, p := range policies {
		policyByID[p.ID] = p
	}

	byGeo := make(map[string][]Contribution)
	for _, e := range entries {
		p, ok := policyByID[e.FactorPolicyID]
		if !ok {
			// Entry belongs to an inactive policy; it must not contribute.
			continue
		}
		weight := p.Weight
		if p.ScoringStrategy == model.ScoringNone {
			// Filter-only factor: its veto applies but it carries no
			// weight in the average.
			weight = 0
		}
		byGeo[e.MapGeoID] = append(byGeo[e.MapGeoID], Contribution{
			Weight: weight,
			Score:  e.Score,
			Vetoed: e.IsFiltered,
		})
	}

	scores := make([]model.GeoScore, 0, len(details))
	for _, d := range details {
		agg := Combine(byGeo[d.ID])
		scores = append(scores, model.GeoScore{
			GeoID:      d.GeoID,
			Name:       d.Name,
			Score:      agg.Score,
			IsFiltered: agg.IsFiltered,
			Geometry:   d.Geometry,
		})
	}
	return scores, nil
}

// factorValues loads the raw values for a factor keyed by geography.
func (o *Orchestrator) factorValues(ctx context.Context, factorID int) (map[string]float64, error) {
	rows, err := o.store.ListFactorValues(ctx, factorID)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: list values for factor %d", factorID)
	}
	values := make(map[string]float64, len(rows))
	for _, v := range rows {
		values[v.GeoID] = v.Value
	}
	return values, nil
}

// computeEntry runs the normalizer and filter evaluator for one
// geography. no_scoring policies record score 0; the aggregator gives
// them zero weight so only their veto matters.
func computeEntry(p *model.FactorPolicy, mapGeoID string, raw float64) model.ScoreCacheEntry {
	score, _ := Normalize(raw, p.ScoringStrategy, p.ScoreTipping1, p.ScoreTipping2)
	return model.ScoreCacheEntry{
		FactorPolicyID: p.ID,
		MapGeoID:       mapGeoID,
		Score:          score,
		RawValue:       raw,
		IsFiltered:     Vetoed(raw, p.FilterStrategy, p.FilterTipping1, p.FilterTipping2),
	}
}
