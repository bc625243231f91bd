package model

import (
	"encoding/json"
	"time"
)

// Map is one user's suitability map: a set of geographies scored by a
// set of weighted factor policies.
type Map struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CenterLat float64   `json:"center_lat"`
	CenterLng float64   `json:"center_lng"`
	ZoomLevel float64   `json:"zoom_level"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Geography is a scorable area imported from TIGER/Line data. Geometry
// is stored as GeoJSON and passed through untouched; the engine never
// interprets it.
type Geography struct {
	GeoID    string          `json:"geo_id"`
	GeoType  string          `json:"geo_type"`
	Name     string          `json:"name"`
	NAMELSAD string          `json:"namelsad,omitempty"`
	ALand    int64           `json:"aland"`
	AWater   int64           `json:"awater"`
	IntPtLat float64         `json:"intptlat"`
	IntPtLon float64         `json:"intptlon"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// MapGeo is a geography's membership inside a specific map, with the
// display name the map owner chose for it. The (map, geo) pair is unique.
type MapGeo struct {
	ID    string `json:"id"`
	MapID string `json:"map_id"`
	GeoID string `json:"geo_id"`
	Name  string `json:"name"`
}

// GeoScore is one row of a map's composite ranking: the weighted
// aggregate across all active factor policies for one geography.
type GeoScore struct {
	GeoID      string          `json:"geo_id"`
	Name       string          `json:"name"`
	Score      int             `json:"score"`
	IsFiltered bool            `json:"is_filtered"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
}
