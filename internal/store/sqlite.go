package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/settlesavvy/suitability-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local
// single-user setups where running Postgres is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS factors (
	id                       INTEGER PRIMARY KEY AUTOINCREMENT,
	name                     TEXT NOT NULL UNIQUE,
	display_name             TEXT NOT NULL DEFAULT '',
	description              TEXT NOT NULL DEFAULT '',
	source                   TEXT NOT NULL DEFAULT '',
	category                 TEXT NOT NULL DEFAULT '',
	units                    TEXT NOT NULL DEFAULT '',
	default_scoring_strategy TEXT NOT NULL DEFAULT 'no_scoring',
	is_active                INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS geographies (
	geo_id   TEXT PRIMARY KEY,
	geo_type TEXT NOT NULL DEFAULT 'unspecified',
	name     TEXT NOT NULL,
	namelsad TEXT NOT NULL DEFAULT '',
	aland    INTEGER NOT NULL DEFAULT 0,
	awater   INTEGER NOT NULL DEFAULT 0,
	intptlat REAL NOT NULL DEFAULT 0,
	intptlon REAL NOT NULL DEFAULT 0,
	geometry TEXT
);

CREATE TABLE IF NOT EXISTS maps (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	center_lat REAL NOT NULL DEFAULT 0,
	center_lng REAL NOT NULL DEFAULT 0,
	zoom_level REAL NOT NULL DEFAULT 10,
	created_by TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
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
	weight           REAL NOT NULL CHECK (weight >= 0),
	scoring_strategy TEXT NOT NULL DEFAULT 'no_scoring',
	filter_strategy  TEXT NOT NULL DEFAULT 'no_filter',
	score_tipping_1  REAL,
	score_tipping_2  REAL,
	filter_tipping_1 REAL,
	filter_tipping_2 REAL,
	is_active        INTEGER NOT NULL DEFAULT 1,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (map_id, factor_id)
);

CREATE TABLE IF NOT EXISTS geo_factor_values (
	factor_id    INTEGER NOT NULL REFERENCES factors(id) ON DELETE CASCADE,
	geo_id       TEXT NOT NULL REFERENCES geographies(geo_id) ON DELETE CASCADE,
	value        REAL NOT NULL,
	needs_fetch  INTEGER NOT NULL DEFAULT 0,
	last_updated DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (factor_id, geo_id)
);

CREATE TABLE IF NOT EXISTS score_cache (
	factor_policy_id TEXT NOT NULL REFERENCES factor_policies(id) ON DELETE CASCADE,
	map_geo_id       TEXT NOT NULL REFERENCES map_geos(id) ON DELETE CASCADE,
	score            REAL NOT NULL,
	raw_value        REAL NOT NULL,
	is_filtered      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (factor_policy_id, map_geo_id)
);

CREATE INDEX IF NOT EXISTS idx_factors_category ON factors(category);
CREATE INDEX IF NOT EXISTS idx_map_geos_map_id ON map_geos(map_id);
CREATE INDEX IF NOT EXISTS idx_factor_policies_map_id ON factor_policies(map_id);
CREATE INDEX IF NOT EXISTS idx_geo_factor_values_geo_id ON geo_factor_values(geo_id);
CREATE INDEX IF NOT EXISTS idx_score_cache_map_geo_id ON score_cache(map_geo_id);
`

// Migrate applies the schema. Idempotent.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateFactor implements Store.
func (s *SQLiteStore) CreateFactor(ctx context.Context, f *model.Factor) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO factors (name, display_name, description, source, category, units, default_scoring_strategy, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, f.Name, f.DisplayName, f.Description, f.Source, f.Category, f.Units,
		string(f.DefaultScoringStrategy), f.IsActive)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: create factor")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: factor id")
	}
	return int(id), nil
}

// GetFactor implements Store.
func (s *SQLiteStore) GetFactor(ctx context.Context, id int) (*model.Factor, error) {
	var f model.Factor
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, display_name, description, source, category, units, default_scoring_strategy, is_active
		FROM factors WHERE id = ?
	`, id).Scan(
		&f.ID, &f.Name, &f.DisplayName, &f.Description, &f.Source,
		&f.Category, &f.Units, &f.DefaultScoringStrategy, &f.IsActive,
	)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "factor %d", id)
		}
		return nil, eris.Wrap(err, "sqlite: get factor")
	}
	return &f, nil
}

// ListFactors implements Store.
func (s *SQLiteStore) ListFactors(ctx context.Context, filter FactorFilter) ([]model.Factor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, display_name, description, source, category, units, default_scoring_strategy, is_active
		FROM factors
		WHERE (? = '' OR category = ?) AND (NOT ? OR is_active)
		ORDER BY category, name
	`, filter.Category, filter.Category, filter.ActiveOnly)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list factors")
	}
	defer rows.Close()

	var factors []model.Factor
	for rows.Next() {
		var f model.Factor
		if err := rows.Scan(
			&f.ID, &f.Name, &f.DisplayName, &f.Description, &f.Source,
			&f.Category, &f.Units, &f.DefaultScoringStrategy, &f.IsActive,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan factor row")
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

// DeactivateFactor implements Store.
func (s *SQLiteStore) DeactivateFactor(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE factors SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrap(err, "sqlite: deactivate factor")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "factor %d", id)
	}
	return nil
}

// UpsertGeography implements Store.
func (s *SQLiteStore) UpsertGeography(ctx context.Context, g *model.Geography) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geographies (geo_id, geo_type, name, namelsad, aland, awater, intptlat, intptlon, geometry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (geo_id) DO UPDATE SET
			geo_type = excluded.geo_type,
			name = excluded.name,
			namelsad = excluded.namelsad,
			aland = excluded.aland,
			awater = excluded.awater,
			intptlat = excluded.intptlat,
			intptlon = excluded.intptlon,
			geometry = excluded.geometry
	`, g.GeoID, g.GeoType, g.Name, g.NAMELSAD, g.ALand, g.AWater,
		g.IntPtLat, g.IntPtLon, nullableJSON(g.Geometry))
	return eris.Wrap(err, "sqlite: upsert geography")
}

// BulkUpsertGeographies implements Store. SQLite has no COPY path, so
// rows go through the single-row upsert inside one transaction.
func (s *SQLiteStore) BulkUpsertGeographies(ctx context.Context, geos []model.Geography) (int64, error) {
	if len(geos) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin geography upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO geographies (geo_id, geo_type, name, namelsad, aland, awater, intptlat, intptlon, geometry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (geo_id) DO UPDATE SET
			geo_type = excluded.geo_type,
			name = excluded.name,
			namelsad = excluded.namelsad,
			aland = excluded.aland,
			awater = excluded.awater,
			intptlat = excluded.intptlat,
			intptlon = excluded.intptlon,
			geometry = excluded.geometry
	`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare geography upsert")
	}
	defer stmt.Close()

	for _, g := range geos {
		if _, err := stmt.ExecContext(ctx,
			g.GeoID, g.GeoType, g.Name, g.NAMELSAD, g.ALand, g.AWater,
			g.IntPtLat, g.IntPtLon, nullableJSON(g.Geometry),
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert geography %s", g.GeoID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit geography upsert")
	}
	return int64(len(geos)), nil
}

// GetGeography implements Store.
func (s *SQLiteStore) GetGeography(ctx context.Context, geoID string) (*model.Geography, error) {
	var g model.Geography
	var geometry sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT geo_id, geo_type, name, namelsad, aland, awater, intptlat, intptlon, geometry
		FROM geographies WHERE geo_id = ?
	`, geoID).Scan(
		&g.GeoID, &g.GeoType, &g.Name, &g.NAMELSAD, &g.ALand, &g.AWater,
		&g.IntPtLat, &g.IntPtLon, &geometry,
	)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "geography %s", geoID)
		}
		return nil, eris.Wrap(err, "sqlite: get geography")
	}
	if geometry.Valid {
		g.Geometry = []byte(geometry.String)
	}
	return &g, nil
}

// CreateMap implements Store.
func (s *SQLiteStore) CreateMap(ctx context.Context, m *model.Map) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO maps (id, name, center_lat, center_lng, zoom_level, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.CenterLat, m.CenterLng, m.ZoomLevel, m.CreatedBy, m.CreatedAt, m.UpdatedAt)
	return eris.Wrap(err, "sqlite: create map")
}

// GetMap implements Store.
func (s *SQLiteStore) GetMap(ctx context.Context, id string) (*model.Map, error) {
	var m model.Map
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, center_lat, center_lng, zoom_level, created_by, created_at, updated_at
		FROM maps WHERE id = ?
	`, id).Scan(
		&m.ID, &m.Name, &m.CenterLat, &m.CenterLng, &m.ZoomLevel,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "map %s", id)
		}
		return nil, eris.Wrap(err, "sqlite: get map")
	}
	return &m, nil
}

// ListMaps implements Store.
func (s *SQLiteStore) ListMaps(ctx context.Context) ([]model.Map, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, center_lat, center_lng, zoom_level, created_by, created_at, updated_at
		FROM maps ORDER BY created_at
	`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list maps")
	}
	defer rows.Close()

	var maps []model.Map
	for rows.Next() {
		var m model.Map
		if err := rows.Scan(
			&m.ID, &m.Name, &m.CenterLat, &m.CenterLng, &m.ZoomLevel,
			&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan map row")
		}
		maps = append(maps, m)
	}
	return maps, rows.Err()
}

// AddMapGeo implements Store.
func (s *SQLiteStore) AddMapGeo(ctx context.Context, mg *model.MapGeo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO map_geos (id, map_id, geo_id, name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (map_id, geo_id) DO UPDATE SET name = excluded.name
	`, mg.ID, mg.MapID, mg.GeoID, mg.Name)
	return eris.Wrap(err, "sqlite: add map geo")
}

// ListMapGeos implements Store.
func (s *SQLiteStore) ListMapGeos(ctx context.Context, mapID string) ([]model.MapGeo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, map_id, geo_id, name
		FROM map_geos WHERE map_id = ? ORDER BY name, geo_id
	`, mapID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list map geos")
	}
	defer rows.Close()

	var mgs []model.MapGeo
	for rows.Next() {
		var mg model.MapGeo
		if err := rows.Scan(&mg.ID, &mg.MapID, &mg.GeoID, &mg.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan map geo row")
		}
		mgs = append(mgs, mg)
	}
	return mgs, rows.Err()
}

// ListMapGeoDetails implements Store.
func (s *SQLiteStore) ListMapGeoDetails(ctx context.Context, mapID string) ([]MapGeoDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mg.id, mg.map_id, mg.geo_id, mg.name, g.geometry
		FROM map_geos mg
		JOIN geographies g ON g.geo_id = mg.geo_id
		WHERE mg.map_id = ?
		ORDER BY mg.name, mg.geo_id
	`, mapID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list map geo details")
	}
	defer rows.Close()

	var details []MapGeoDetail
	for rows.Next() {
		var d MapGeoDetail
		var geometry sql.NullString
		if err := rows.Scan(&d.ID, &d.MapID, &d.GeoID, &d.Name, &geometry); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan map geo detail row")
		}
		if geometry.Valid {
			d.Geometry = []byte(geometry.String)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// SavePolicy implements Store.
func (s *SQLiteStore) SavePolicy(ctx context.Context, p *model.FactorPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO factor_policies
			(id, map_id, factor_id, weight, scoring_strategy, filter_strategy,
			 score_tipping_1, score_tipping_2, filter_tipping_1, filter_tipping_2,
			 is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (map_id, factor_id) DO UPDATE SET
			weight = excluded.weight,
			scoring_strategy = excluded.scoring_strategy,
			filter_strategy = excluded.filter_strategy,
			score_tipping_1 = excluded.score_tipping_1,
			score_tipping_2 = excluded.score_tipping_2,
			filter_tipping_1 = excluded.filter_tipping_1,
			filter_tipping_2 = excluded.filter_tipping_2,
			is_active = excluded.is_active
	`, p.ID, p.MapID, p.FactorID, p.Weight,
		string(p.ScoringStrategy), string(p.FilterStrategy),
		p.ScoreTipping1, p.ScoreTipping2, p.FilterTipping1, p.FilterTipping2,
		p.IsActive, p.CreatedAt)
	return eris.Wrap(err, "sqlite: save policy")
}

// GetPolicy implements Store.
func (s *SQLiteStore) GetPolicy(ctx context.Context, id string) (*model.FactorPolicy, error) {
	var p model.FactorPolicy
	err := s.db.QueryRowContext(ctx, `
		SELECT id, map_id, factor_id, weight, scoring_strategy, filter_strategy,
		       score_tipping_1, score_tipping_2, filter_tipping_1, filter_tipping_2,
		       is_active, created_at
		FROM factor_policies WHERE id = ?
	`, id).Scan(
		&p.ID, &p.MapID, &p.FactorID, &p.Weight,
		&p.ScoringStrategy, &p.FilterStrategy,
		&p.ScoreTipping1, &p.ScoreTipping2, &p.FilterTipping1, &p.FilterTipping2,
		&p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "policy %s", id)
		}
		return nil, eris.Wrap(err, "sqlite: get policy")
	}
	return &p, nil
}

// ListPolicies implements Store.
func (s *SQLiteStore) ListPolicies(ctx context.Context, mapID string, activeOnly bool) ([]model.FactorPolicy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, map_id, factor_id, weight, scoring_strategy, filter_strategy,
		       score_tipping_1, score_tipping_2, filter_tipping_1, filter_tipping_2,
		       is_active, created_at
		FROM factor_policies
		WHERE map_id = ? AND (NOT ? OR is_active)
		ORDER BY created_at, id
	`, mapID, activeOnly)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list policies")
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
			return nil, eris.Wrap(err, "sqlite: scan policy row")
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// DeactivatePolicy implements Store.
func (s *SQLiteStore) DeactivatePolicy(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE factor_policies SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrap(err, "sqlite: deactivate policy")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "policy %s", id)
	}
	return nil
}

// UpsertFactorValue implements Store.
func (s *SQLiteStore) UpsertFactorValue(ctx context.Context, v *model.GeoFactorValue) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geo_factor_values (factor_id, geo_id, value, needs_fetch, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (factor_id, geo_id) DO UPDATE SET
			value = excluded.value,
			needs_fetch = excluded.needs_fetch,
			last_updated = excluded.last_updated
	`, v.FactorID, v.GeoID, v.Value, v.NeedsFetch, time.Now().UTC())
	return eris.Wrap(err, "sqlite: upsert factor value")
}

// BulkUpsertFactorValues implements Store.
func (s *SQLiteStore) BulkUpsertFactorValues(ctx context.Context, values []model.GeoFactorValue) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin value upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO geo_factor_values (factor_id, geo_id, value, needs_fetch, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (factor_id, geo_id) DO UPDATE SET
			value = excluded.value,
			needs_fetch = excluded.needs_fetch,
			last_updated = excluded.last_updated
	`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare value upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, v.FactorID, v.GeoID, v.Value, v.NeedsFetch, now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert value for geo %s", v.GeoID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit value upsert")
	}
	return int64(len(values)), nil
}

// ListFactorValues implements Store.
func (s *SQLiteStore) ListFactorValues(ctx context.Context, factorID int) ([]model.GeoFactorValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT factor_id, geo_id, value, needs_fetch, last_updated
		FROM geo_factor_values WHERE factor_id = ? ORDER BY geo_id
	`, factorID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list factor values")
	}
	defer rows.Close()

	var values []model.GeoFactorValue
	for rows.Next() {
		var v model.GeoFactorValue
		if err := rows.Scan(&v.FactorID, &v.GeoID, &v.Value, &v.NeedsFetch, &v.LastUpdated); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan factor value row")
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// ReplacePolicyScores implements Store.
func (s *SQLiteStore) ReplacePolicyScores(ctx context.Context, policyID string, entries []model.ScoreCacheEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin score replace")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM score_cache WHERE factor_policy_id = ?`, policyID); err != nil {
		return eris.Wrap(err, "sqlite: clear policy scores")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO score_cache (factor_policy_id, map_geo_id, score, raw_value, is_filtered)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare score insert")
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.FactorPolicyID, e.MapGeoID, e.Score, e.RawValue, e.IsFiltered,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert score for map geo %s", e.MapGeoID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit score replace")
}

// ListMapScoreEntries implements Store.
func (s *SQLiteStore) ListMapScoreEntries(ctx context.Context, mapID string) ([]model.ScoreCacheEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sc.factor_policy_id, sc.map_geo_id, sc.score, sc.raw_value, sc.is_filtered
		FROM score_cache sc
		JOIN factor_policies fp ON fp.id = sc.factor_policy_id
		WHERE fp.map_id = ? AND fp.is_active
		ORDER BY sc.map_geo_id, sc.factor_policy_id
	`, mapID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list map score entries")
	}
	defer rows.Close()

	var entries []model.ScoreCacheEntry
	for rows.Next() {
		var e model.ScoreCacheEntry
		if err := rows.Scan(&e.FactorPolicyID, &e.MapGeoID, &e.Score, &e.RawValue, &e.IsFiltered); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score entry row")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullableJSON converts empty geometry to NULL for storage.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
