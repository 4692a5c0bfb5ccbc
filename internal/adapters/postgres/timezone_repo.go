package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/tzmonths/internal/adapters/tzlookup"
)

// Boundary is one zone polygon as GeoJSON geometry.
type Boundary struct {
	TZID    string
	GeoJSON []byte
}

// TimeZoneRepo resolves zones against PostGIS polygons from
// timezone-boundary-builder, loaded into timezone_boundaries.
type TimeZoneRepo struct {
	db *DB
}

// NewTimeZoneRepo creates a new TimeZoneRepo.
func NewTimeZoneRepo(db *DB) *TimeZoneRepo {
	return &TimeZoneRepo{db: db}
}

// Name identifies the backend in logs and metrics.
func (r *TimeZoneRepo) Name() string { return tzlookup.BackendPostGIS }

// Resolve returns the zone whose polygon contains the point. Where polygons
// overlap (disputed areas) the smallest one wins.
func (r *TimeZoneRepo) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	var tzid string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT tzid
		FROM timezone_boundaries
		WHERE ST_Intersects(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY ST_Area(geom) ASC
		LIMIT 1
	`, lon, lat).Scan(&tzid)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %.4f,%.4f", tzlookup.ErrNotFound, lat, lon)
	}
	if err != nil {
		return "", fmt.Errorf("query timezone_boundaries: %w", err)
	}
	return tzid, nil
}

// UpsertBatch replaces the polygons of the given zones using pgx.Batch.
func (r *TimeZoneRepo) UpsertBatch(ctx context.Context, boundaries []Boundary) error {
	batch := &pgx.Batch{}
	for _, b := range boundaries {
		batch.Queue(`
			INSERT INTO timezone_boundaries (tzid, geom)
			VALUES ($1, ST_Multi(ST_SetSRID(ST_GeomFromGeoJSON($2), 4326)))
			ON CONFLICT (tzid) DO UPDATE SET geom = EXCLUDED.geom
		`, b.TZID, string(b.GeoJSON))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, b := range boundaries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert %s: %w", b.TZID, err)
		}
	}
	return nil
}

// Count returns the number of loaded zones.
func (r *TimeZoneRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM timezone_boundaries`).Scan(&n)
	return n, err
}
