package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/settlesavvy/suitability-cli/internal/db"
	"github.com/settlesavvy/suitability-cli/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres connects to Postgres and returns a ready store.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresStore wraps an existing pool. Used by tests with pgxmock.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for bulk-load paths.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS factors (
	id                       SERIAL PRIMARY KEY,
	name                     TEXT NOT NULL UNIQUE,
	display_name             TEXT NOT NULL DEFAULT '',
	description              TEXT NOT NULL DEFAULT '',
	source                   TEXT NOT NULL DEFAULT '',
	category                 TEXT NOT NULL DEFAULT '',
	units                    TEXT NOT NULL DEFAULT '',
	default_scoring_strategy TEXT NOT NULL DEFAULT 'no_scoring',
	is_active                BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS geographies (
	geo_id   TEXT PRIMARY KEY,
	geo_type TEXT NOT NULL DEFAULT 'unspecified',
	name     TEXT NOT NULL,
	namelsad TEXT NOT NULL DEFAULT '',
	aland    BIGINT NOT NULL DEFAULT 0,
	awater   BIGINT NOT NULL DEFAULT 0,
	intptlat DOUBLE PRECISION NOT NULL DEFAULT 0,
	intptlon DOUBLE PRECISION NOT NULL DEFAULT 0,
	geometry JSONB
);

CREATE TABLE IF NOT EXISTS maps (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	center_lat DOUBLE PRECISION NOT NULL DEFAULT 0,
	center_lng DOUBLE PRECISION NOT NULL DEFAULT 0,
	zoom_level DOUBLE PRECISION NOT NULL DEFAULT 10,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS map_geos (
	id     TEXT PRIMARY KEY,
	map_id TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
	geo_id TEXT NOT NULL REFERENCES geographies(geo_id) ON DELETE CASCADE,
	name   TEXT NOT NULL,
	UNIQUE (map_id, geo_id)
);

CREATE TABLE IF NOT EXISTS factor_policies (
	id               TEXT PRIMARY KEY,
	map_id           TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
	factor_id        INTEGER NOT NULL REFERENCES factors(id) ON DELETE CASCADE,
	weight           DOUBLE PRECISION NOT NULL CHECK (weight >= 0),
	scoring_strategy TEXT NOT NULL DEFAULT 'no_scoring',
	filter_strategy  TEXT NOT NULL DEFAULT 'no_filter',
	score_tipping_1  DOUBLE PRECISION,
	score_tipping_2  DOUBLE PRECISION,
	filter_tipping_1 DOUBLE PRECISION,
	filter_tipping_2 DOUBLE PRECISION,
	is_active        BOOLEAN NOT NULL DEFAULT true,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (map_id, factor_id)
);

CREATE TABLE IF NOT EXISTS geo_factor_values (
	factor_id    INTEGER NOT NULL REFERENCES factors(id) ON DELETE CASCADE,
	geo_id       TEXT NOT NULL REFERENCES geographies(geo_id) ON DELETE CASCADE,
	value        DOUBLE PRECISION NOT NULL,
	needs_fetch  BOOLEAN NOT NULL DEFAULT false,
	last_updated TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (factor_id, geo_id)
);

CREATE TABLE IF NOT EXISTS score_cache (
	factor_policy_id TEXT NOT NULL REFERENCES factor_policies(id) ON DELETE CASCADE,
	map_geo_id       TEXT NOT NULL REFERENCES map_geos(id) ON DELETE CASCADE,
	score            DOUBLE PRECISION NOT NULL,
	raw_value        DOUBLE PRECISION NOT NULL,
	is_filtered      BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (factor_policy_id, map_geo_id)
);

CREATE INDEX IF NOT EXISTS idx_factors_category ON factors(category);
CREATE INDEX IF NOT EXISTS idx_map_geos_map_id ON map_geos(map_id);
CREATE INDEX IF NOT EXISTS idx_factor_policies_map_id ON factor_policies(map_id);
CREATE INDEX IF NOT EXISTS idx_geo_factor_values_geo_id ON geo_factor_values(geo_id);
CREATE INDEX IF NOT EXISTS idx_score_cache_map_geo_id ON score_cache(map_geo_id);
`

// Migrate applies the schema. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// CreateFactor implements Store.
func (s *PostgresStore) CreateFactor(ctx context.Context, f *model.Factor) (int, error) {
	sql := `
		INSERT INTO factors (name, display_name, description, source, category, units, default_scoring_strategy, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id int
	err := s.pool.QueryRow(ctx, sql,
		f.Name, f.DisplayName, f.Description, f.Source, f.Category, f.Units,
		string(f.DefaultScoringStrategy), f.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: create factor")
	}
	return id, nil
}

// GetFactor implements Store.
func (s *PostgresStore) GetFactor(ctx context.Context, id int) (*model.Factor, error) {
	sql := `
		SELECT id, name, display_name, description, source, category, units, default_scoring_strategy, is_active
		FROM factors WHERE id = $1
	`
	var f model.Factor
	err := s.pool.QueryRow(ctx, sql, id).Scan(
		&f.ID, &f.Name, &f.DisplayName, &f.Description, &f.Source,
		&f.Category, &f.Units, &f.DefaultScoringStrategy, &f.IsActive,
	)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "factor %d", id)
		}
		return nil, eris.Wrap(err, "postgres: get factor")
	}
	return &f, nil
}

// ListFactors implements Store.
func (s *PostgresStore) ListFactors(ctx context.Context, filter FactorFilter) ([]model.Factor, error) {
	sql := `
		SELECT id, name, display_name, description, source, category, units, default_scoring_strategy, is_active
		FROM factors
		WHERE ($1 = '' OR category = $1) AND (NOT $2 OR is_active)
		ORDER BY category, name
	`
	rows, err := s.pool.Query(ctx, sql, filter.Category, filter.ActiveOnly)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list factors")
	}
	defer rows.Close()

	var factors []model.Factor
	for rows.Next() {
		var f model.Factor
		if err := rows.Scan(
			&f.ID, &f.Name, &f.DisplayName, &f.Description, &f.Source,
			&f.Category, &f.Units, &f.DefaultScoringStrategy, &f.IsActive,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan factor row")
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

// DeactivateFactor implements Store.
func (s *PostgresStore) DeactivateFactor(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE factors SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return eris.Wrap(err, "postgres: deactivate factor")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "factor %d", id)
	}
	return nil
}

// UpsertGeography implements Store.
func (s *PostgresStore) UpsertGeography(ctx context.Context, g *model.Geography) error {
	sql := `
		INSERT INTO geographies (geo_id, geo_type, name, namelsad, aland, awater, intptlat, intptlon, geometry)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (geo_id) DO UPDATE SET
			geo_type = EXCLUDED.geo_type,
			name = EXCLUDED.name,
			namelsad = EXCLUDED.namelsad,
			aland = EXCLUDED.aland,
			awater = EXCLUDED.awater,
			intptlat = EXCLUDED.intptlat,
			intptlon = EXCLUDED.intptlon,
			geometry = EXCLUDED.geometry
	`
	_, err := s.pool.Exec(ctx, sql,
		g.GeoID, g.GeoType, g.Name, g.NAMELSAD, g.ALand, g.AWater,
		g.IntPtLat, g.IntPtLon, g.Geometry,
	)
	return eris.Wrap(err, "postgres: upsert geography")
}

// BulkUpsertGeographies implements Store.
func (s *PostgresStore) BulkUpsertGeographies(ctx context.Context, geos []model.Geography) (int64, error) {
	rows := make([][]any, len(geos))
	for i, g := range geos {
		rows[i] = []any{
			g.GeoID, g.GeoType, g.Name, g.NAMELSAD, g.ALand, g.AWater,
			g.IntPtLat, g.IntPtLon, g.Geometry,
		}
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "geographies",
		Columns:      []string{"geo_id", "geo_type", "name", "namelsad", "aland", "awater", "intptlat", "intptlon", "geometry"},
		ConflictKeys: []string{"geo_id"},
	}, rows)
}

// GetGeography implements Store.
func (s *PostgresStore) GetGeography(ctx context.Context, geoID string) (*model.Geography, error) {
	sql := `
		SELECT geo_id, geo_type, name, namelsad, aland, awater, intptlat, intptlon, geometry
		FROM geographies WHERE geo_id = $1
	`
	var g model.Geography
	err := s.pool.QueryRow(ctx, sql, geoID).Scan(
		&g.GeoID, &g.GeoType, &g.Name, &g.NAMELSAD, &g.ALand, &g.AWater,
		&g.IntPtLat, &g.IntPtLon, &g.Geometry,
	)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "geography %s", geoID)
		}
		return nil, eris.Wrap(err, "postgres: get geography")
	}
	return &g, nil
}

// CreateMap implements Store.
func (s *PostgresStore) CreateMap(ctx context.Context, m *model.Map) error {
	sql := `
		INSERT INTO maps (id, name, center_lat, center_lng, zoom_level, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, sql,
		m.ID, m.Name, m.CenterLat, m.CenterLng, m.ZoomLevel, m.CreatedBy,
		m.CreatedAt, m.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: create map")
}

// GetMap implements Store.
func (s *PostgresStore) GetMap(ctx context.Context, id string) (*model.Map, error) {
	sql := `
		SELECT id, name, center_lat, center_lng, zoom_level, created_by, created_at, updated_at
		FROM maps WHERE id = $1
	`
	var m model.Map
	err := s.pool.QueryRow(ctx, sql, id).Scan(
		&m.ID, &m.Name, &m.CenterLat, &m.CenterLng, &m.ZoomLevel,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "map %s", id)
		}
		return nil, eris.Wrap(err, "postgres: get map")
	}
	return &m, nil
}

// ListMaps implements Store.
func (s *PostgresStore) ListMaps(ctx context.Context) ([]model.Map, error) {
	sql := `
		SELECT id, name, center_lat, center_lng, zoom_level, created_by, created_at, updated_at
		FROM maps ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list maps")
	}
	defer rows.Close()

	var maps []model.Map
	for rows.Next() {
		var m model.Map
		if err := rows.Scan(
			&m.ID, &m.Name, &m.CenterLat, &m.CenterLng, &m.ZoomLevel,
			&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan map row")
		}
		maps = append(maps, m)
	}
	return maps, rows.Err()
}

// AddMapGeo implements Store.
func (s *PostgresStore) AddMapGeo(ctx context.Context, mg *model.MapGeo) error {
	sql := `
		INSERT INTO map_geos (id, map_id, geo_id, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (map_id, geo_id) DO UPDATE SET name = EXCLUDED.name
	`
	_, err := s.pool.Exec(ctx, sql, mg.ID, mg.MapID, mg.GeoID, mg.Name)
	return eris.Wrap(err, "postgres: add map geo")
}

// ListMapGeos implements Store.
func (s *PostgresStore) ListMapGeos(ctx context.Context, mapID string) ([]model.MapGeo, error) {
	sql := `
		SELECT id, map_id, geo_id, name
		FROM map_geos WHERE map_id = $1 ORDER BY name, geo_id
	`
	rows, err := s.pool.Query(ctx, sql, mapID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list map geos")
	}
	defer rows.Close()

	var mgs []model.MapGeo
	for rows.Next() {
		var mg model.MapGeo
		if err := rows.Scan(&mg.ID, &mg.MapID, &mg.GeoID, &mg.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan map geo row")
		}
		mgs = append(mgs, mg)
	}
	return mgs, rows.Err()
}

// ListMapGeoDetails implements Store.
func (s *PostgresStore) ListMapGeoDetails(ctx context.Context, mapID string) ([]MapGeoDetail, error) {
	sql := `
		SELECT mg.id, mg.map_id, mg.geo_id, mg.name, g.geometry
		FROM map_geos mg
		JOIN geographies g ON g.geo_id = mg.geo_id
		WHERE mg.map_id = $1
		ORDER BY mg.name, mg.geo_id
	`
	rows, err := s.pool.Query(ctx, sql, mapID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list map geo details")
	}
	defer rows.Close()

	var details []MapGeoDetail
	for rows.Next() {
		var d MapGeoDetail
		if err := rows.Scan(&d.ID, &d.MapID, &d.GeoID, &d.Name, &d.Geometry); err != nil {
			return nil, eris.Wrap(err, "postgres: scan map geo detail row")
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// SavePolicy implements Store. Policies are validated before any write;
// configuration errors fail the save.
func (s *PostgresStore) SavePolicy(ctx context.Context, p *model.FactorPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	sql := `
		INSERT INTO factor_policies
			(id, map_id, factor_id, weight, scoring_strategy, filter_strategy,
			 score_tipping_1, score_tipping_2, filter_tipping_1, filter_tipping_2,
			 is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (map_id, factor_id) DO UPDATE SET
			weight = EXCLUDED.weight,
			scoring_strategy = EXCLUDED.scoring_strategy,
			filter_strategy = EXCLUDED.filter_strategy,
			score_tipping_1 = EXCLUDED.score_tipping_1,
			score_tipping_2 = EXCLUDED.score_tipping_2,
			filter_tipping_1 = EXCLUDED.filter_tipping_1,
			filter_tipping_2 = EXCLUDED.filter_tipping_2,
			is_active = EXCLUDED.is_active
	`
	_, err := s.pool.Exec(ctx, sql,
		p.ID, p.MapID, p.FactorID, p.Weight,
		string(p.ScoringStrategy), string(p.FilterStrategy),
		p.ScoreTipping1, p.ScoreTipping2, p.FilterTipping1, p.FilterTipping2,
		p.IsActive, p.CreatedAt,
	)
	return eris.Wrap(err, "postgres: save policy")
}

// GetPolicy implements Store.
func (s *PostgresStore) GetPolicy(ctx context.Context, id string) (*model.FactorPolicy, error) {
	sql := `
		SELECT id, map_id, factor_id, weight, scoring_strategy, filter_strategy,
		       score_tipping_1, score_tipping_2, filter_tipping_1, filter_tipping_2,
		       is_active, created_at
		FROM factor_policies WHERE id = $1
	`
	var p model.FactorPolicy
	err := s.pool.QueryRow(ctx, sql, id).Scan(
		&p.ID, &p.MapID, &p.FactorID, &p.Weight,
		&p.ScoringStrategy, &p.FilterStrategy,
		&p.ScoreTipping1, &p.ScoreTipping2, &p.FilterTipping1, &p.FilterTipping2,
		&p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "policy %s", id)
		}
		return nil, eris.Wrap(err, "postgres: get policy")
	}
	return &p, nil
}

// ListPolicies implements Store.
func (s *PostgresStore) ListPolicies(ctx context.Context, mapID string, activeOnly bool) ([]model.FactorPolicy, error) {
	sql := `
		SELECT id, map_id, factor_id, weight, scoring_strategy, filter_strategy,
		       score_tipping_1, score_tipping_2, filter_tipping_1, filter_tipping_2,
		       is_active, created_at
		FROM factor_policies
		WHERE map_id = $1 AND (NOT $2 OR is_active)
		ORDER BY created_at, id
	`
	rows, err := s.pool.Query(ctx, sql, mapID, activeOnly)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list policies")
	}
	defer rows.Close()

	var policies []model.FactorPolicy
	for rows.Next() {
		var p model.FactorPolicy
		if err := rows.Scan(
			&p.ID, &p.MapID, &p.FactorID, &p.Weight,
			&p.ScoringStrategy, &p.FilterStrategy,
			&p.ScoreTipping1, &p.ScoreTipping2, &p.FilterTipping1, &p.FilterTipping2,
			&p.IsActive, &p.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan policy row")
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// DeactivatePolicy implements Store.
func (s *PostgresStore) DeactivatePolicy(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE factor_policies SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return eris.Wrap(err, "postgres: deactivate policy")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "policy %s", id)
	}
	return nil
}

// UpsertFactorValue implements Store.
func (s *PostgresStore) UpsertFactorValue(ctx context.Context, v *model.GeoFactorValue) error {
	sql := `
		INSERT INTO geo_factor_values (factor_id, geo_id, value, needs_fetch, last_updated)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (factor_id, geo_id) DO UPDATE SET
			value = EXCLUDED.value,
			needs_fetch = EXCLUDED.needs_fetch,
			last_updated = now()
	`
	_, err := s.pool.Exec(ctx, sql, v.FactorID, v.GeoID, v.Value, v.NeedsFetch)
	return eris.Wrap(err, "postgres: upsert factor value")
}

// BulkUpsertFactorValues implements Store.
func (s *PostgresStore) BulkUpsertFactorValues(ctx context.Context, values []model.GeoFactorValue) (int64, error) {
	rows := make([][]any, len(values))
	for i, v := range values {
		rows[i] = []any{v.FactorID, v.GeoID, v.Value, v.NeedsFetch}
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "geo_factor_values",
		Columns:      []string{"factor_id", "geo_id", "value", "needs_fetch"},
		ConflictKeys: []string{"factor_id", "geo_id"},
	}, rows)
}

// ListFactorValues implements Store.
func (s *PostgresStore) ListFactorValues(ctx context.Context, factorID int) ([]model.GeoFactorValue, error) {
	sql := `
		SELECT factor_id, geo_id, value, needs_fetch, last_updated
		FROM geo_factor_values WHERE factor_id = $1 ORDER BY geo_id
	`
	rows, err := s.pool.Query(ctx, sql, factorID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list factor values")
	}
	defer rows.Close()

	var values []model.GeoFactorValue
	for rows.Next() {
		var v model.GeoFactorValue
		if err := rows.Scan(&v.FactorID, &v.GeoID, &v.Value, &v.NeedsFetch, &v.LastUpdated); err != nil {
			return nil, eris.Wrap(err, "postgres: scan factor value row")
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// ReplacePolicyScores implements Store. The delete-then-insert runs in
// one transaction so concurrent readers observe either the complete old
// batch or the complete new batch; the delete also clears ghost rows
// whose backing raw value has disappeared.
func (s *PostgresStore) ReplacePolicyScores(ctx context.Context, policyID string, entries []model.ScoreCacheEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin score replace")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM score_cache WHERE factor_policy_id = $1`, policyID); err != nil {
		return eris.Wrap(err, "postgres: clear policy scores")
	}

	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO score_cache (factor_policy_id, map_geo_id, score, raw_value, is_filtered)
			VALUES ($1, $2, $3, $4, $5)
		`, e.FactorPolicyID, e.MapGeoID, e.Score, e.RawValue, e.IsFiltered)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert score for map geo %s", e.MapGeoID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit score replace")
}

// ListMapScoreEntries implements Store. Only entries belonging to active
// policies of the map are returned.
func (s *PostgresStore) ListMapScoreEntries(ctx context.Context, mapID string) ([]model.ScoreCacheEntry, error) {
	sql := `
		SELECT sc.factor_policy_id, sc.map_geo_id, sc.score, sc.raw_value, sc.is_filtered
		FROM score_cache sc
		JOIN factor_policies fp ON fp.id = sc.factor_policy_id
		WHERE fp.map_id = $1 AND fp.is_active
		ORDER BY sc.map_geo_id, sc.factor_policy_id
	`
	rows, err := s.pool.Query(ctx, sql, mapID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list map score entries")
	}
	defer rows.Close()

	var entries []model.ScoreCacheEntry
	for rows.Next() {
		var e model.ScoreCacheEntry
		if err := rows.Scan(&e.FactorPolicyID, &e.MapGeoID, &e.Score, &e.RawValue, &e.IsFiltered); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score entry row")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
