// Package store holds the bun-backed Postgres implementations of the
// persistence contracts consumed by internal/services. Geometry work stays
// in SQL (PostGIS); Go never materializes admin polygons.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/models"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/raster"
)

type AdminUnitStore struct {
	db *bun.DB
}

func NewAdminUnitStore(db *bun.DB) *AdminUnitStore {
	return &AdminUnitStore{db: db}
}

// IntersectingUnits returns every admin unit at the given level whose
// geometry intersects the bbox, with the fraction of the unit's own area
// that the bbox covers. Ratio can come back NULL for degenerate geometries;
// callers decide what to skip.
func (s *AdminUnitStore) IntersectingUnits(ctx context.Context, bbox raster.BBox, level int) ([]models.UnitCoverage, error) {
	wkt := bbox.WKT()

	var rows []models.UnitCoverage
	err := s.db.NewRaw(`
        SELECT admin_id, name,
               ST_Area(ST_Intersection(geom, ST_GeomFromText(?, 4326))) / NULLIF(ST_Area(geom), 0) AS coverage_ratio
        FROM admin_units
        WHERE level = ?
        AND ST_Intersects(geom, ST_GeomFromText(?, 4326))
    `, wkt, level, wkt).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Country returns the single level-0 unit, or nil when none is seeded.
func (s *AdminUnitStore) Country(ctx context.Context) (*models.AdminUnit, error) {
	unit := new(models.AdminUnit)
	err := s.db.NewSelect().Model(unit).
		Where("level = ?", models.LevelCountry).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// ProvinceByName resolves a level-1 unit by case-insensitive substring
// match. Only the first hit is returned.
func (s *AdminUnitStore) ProvinceByName(ctx context.Context, name string) (*models.AdminUnit, error) {
	return s.firstByName(ctx, name, models.LevelProvince)
}

// FirstByName resolves any unit by case-insensitive substring match,
// regardless of level. Only the first hit is returned; if several units
// share the substring the rest are ignored (preserved ambiguity of the
// alert filter).
func (s *AdminUnitStore) FirstByName(ctx context.Context, name string) (*models.AdminUnit, error) {
	return s.firstByName(ctx, name, -1)
}

func (s *AdminUnitStore) firstByName(ctx context.Context, name string, level int) (*models.AdminUnit, error) {
	unit := new(models.AdminUnit)
	q := s.db.NewSelect().Model(unit).
		Where("name ILIKE ?", "%"+name+"%")
	if level >= 0 {
		q = q.Where("level = ?", level)
	}
	err := q.Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unit, nil
}
