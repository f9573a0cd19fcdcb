package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/models"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/raster"
)

// AdminUnitFinder resolves administrative units and their geometric
// relationship with a raster extent. Backed by PostGIS in production,
// by fakes in tests.
type AdminUnitFinder interface {
	IntersectingUnits(ctx context.Context, bbox raster.BBox, level int) ([]models.UnitCoverage, error)
	Country(ctx context.Context) (*models.AdminUnit, error)
	ProvinceByName(ctx context.Context, name string) (*models.AdminUnit, error)
	FirstByName(ctx context.Context, name string) (*models.AdminUnit, error)
}

// AreaStatStore persists area stats under the (admin, class, period) unique
// key. Upsert must be idempotent and resolve same-key races natively.
type AreaStatStore interface {
	Upsert(ctx context.Context, stat *models.AreaStat) error
	StatsForAdmin(ctx context.Context, adminID uuid.UUID, periodStart, periodEnd time.Time) ([]models.StatRow, error)
	SummedLevelStats(ctx context.Context, level int, periodStart, periodEnd time.Time) ([]models.StatRow, error)
}

// AggregationService turns classification rasters into per-admin-unit area
// statistics. Each call is synchronous and operates on one raster;
// parallelism across tiles lives in the caller.
type AggregationService struct {
	units AdminUnitFinder
	stats AreaStatStore
	logr  *zap.Logger
}

func NewAggregationService(units AdminUnitFinder, stats AreaStatStore, logr *zap.Logger) *AggregationService {
	return &AggregationService{units: units, stats: stats, logr: logr}
}

// ZonalStatsSimple computes the per-class histogram of the whole map, with
// each count converted to hectares through the per-pixel area. Classes not
// present in the map are omitted; returned pixel counts always sum to H*W.
func (s *AggregationService) ZonalStatsSimple(classMap *raster.ClassMap) ([]models.ClassStat, error) {
	if err := classMap.Validate(); err != nil {
		return nil, err
	}

	pixelAreaHa, err := raster.PixelAreaHa(classMap.BBox, classMap.Width(), classMap.Height())
	if err != nil {
		return nil, err
	}

	counts := make(map[uint16]int64)
	for _, row := range classMap.Classes {
		for _, class := range row {
			counts[class]++
		}
	}

	stats := make([]models.ClassStat, 0, len(counts))
	for class, count := range counts {
		stats = append(stats, models.ClassStat{
			ClassID:    int(class),
			PixelCount: count,
			AreaHa:     float64(count) * pixelAreaHa,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ClassID < stats[j].ClassID })

	return stats, nil
}

// ZonalStatsByAdmin distributes the whole-tile histogram across every admin
// unit at the requested level that intersects the raster extent, scaled by
// each unit's coverage ratio. This is a deliberate approximation: a unit
// that barely overlaps the tile still receives a scaled copy of the entire
// tile's class mixture rather than its own local mixture. Acceptable while
// tiles are small relative to admin units; do not "fix" without a separate
// rasterized-clip mode. No intersecting unit is a soft outcome: empty map,
// warning logged, no error.
func (s *AggregationService) ZonalStatsByAdmin(ctx context.Context, classMap *raster.ClassMap, adminLevel int) (map[uuid.UUID][]models.ClassStat, error) {
	overall, err := s.ZonalStatsSimple(classMap)
	if err != nil {
		return nil, err
	}

	units, err := s.units.IntersectingUnits(ctx, classMap.BBox, adminLevel)
	if err != nil {
		return nil, fmt.Errorf("intersecting units: %w", err)
	}
	if len(units) == 0 {
		s.logr.Warn("no admin units intersect raster bbox",
			zap.Int("admin_level", adminLevel),
			zap.Any("bbox", classMap.BBox))
		return map[uuid.UUID][]models.ClassStat{}, nil
	}

	byAdmin := make(map[uuid.UUID][]models.ClassStat, len(units))
	for _, unit := range units {
		if unit.CoverageRatio == nil || *unit.CoverageRatio <= 0 {
			s.logr.Debug("skipping unit without positive coverage",
				zap.String("admin_id", unit.AdminID.String()),
				zap.String("name", unit.Name))
			continue
		}
		ratio := *unit.CoverageRatio

		scaled := make([]models.ClassStat, 0, len(overall))
		for _, stat := range overall {
			scaled = append(scaled, models.ClassStat{
				ClassID:    stat.ClassID,
				PixelCount: int64(float64(stat.PixelCount) * ratio),
				AreaHa:     stat.AreaHa * ratio,
			})
		}
		byAdmin[unit.AdminID] = scaled
	}

	return byAdmin, nil
}

// UpsertAreaStat writes one stat row under the four-field unique key,
// overwriting values when the row already exists. Identical repeated calls
// converge on the same single row.
func (s *AggregationService) UpsertAreaStat(ctx context.Context, stat *models.AreaStat) (*models.AreaStat, error) {
	if err := s.stats.Upsert(ctx, stat); err != nil {
		return nil, fmt.Errorf("upsert area stat: %w", err)
	}
	s.logr.Info("upserted area stat",
		zap.String("admin_id", stat.AdminID.String()),
		zap.Int("class_id", stat.ClassID),
		zap.Time("period_start", stat.PeriodStart),
		zap.Float64("area_ha", stat.AreaHa))
	return stat, nil
}

// AggregateRaster runs the full pipeline for one classification raster:
// zonal stats per admin unit, then an upsert per (unit, class) pair. The
// returned slice holds every touched record; it is empty (not an error)
// when nothing intersects the raster.
func (s *AggregationService) AggregateRaster(
	ctx context.Context,
	classMap *raster.ClassMap,
	periodStart, periodEnd time.Time,
	adminLevel int,
	sourceAssetID *uuid.UUID,
) ([]*models.AreaStat, error) {
	byAdmin, err := s.ZonalStatsByAdmin(ctx, classMap, adminLevel)
	if err != nil {
		return nil, err
	}

	var touched []*models.AreaStat
	for adminID, stats := range byAdmin {
		for _, stat := range stats {
			record := &models.AreaStat{
				AdminID:       adminID,
				ClassID:       stat.ClassID,
				PeriodStart:   periodStart,
				PeriodEnd:     periodEnd,
				AreaHa:        stat.AreaHa,
				PixelCount:    stat.PixelCount,
				SourceAssetID: sourceAssetID,
			}
			if _, err := s.UpsertAreaStat(ctx, record); err != nil {
				return nil, err
			}
			touched = append(touched, record)
		}
	}

	s.logr.Info("aggregation complete",
		zap.Int("stats", len(touched)),
		zap.Int("admin_units", len(byAdmin)),
		zap.Time("period_start", periodStart))
	return touched, nil
}

// CountryStats returns classwise totals for the whole country at exact
// period bounds. When no level-0 unit is seeded it degrades to summing the
// province-level rows for the period.
func (s *AggregationService) CountryStats(ctx context.Context, periodStart, periodEnd time.Time) ([]models.StatRow, error) {
	country, err := s.units.Country(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup country unit: %w", err)
	}
	if country == nil {
		return s.stats.SummedLevelStats(ctx, models.LevelProvince, periodStart, periodEnd)
	}
	return s.stats.StatsForAdmin(ctx, country.AdminID, periodStart, periodEnd)
}

// ProvinceStats returns classwise stats for one province resolved by
// substring name match. Unknown provinces yield an empty result and a
// warning, not an error.
func (s *AggregationService) ProvinceStats(ctx context.Context, provinceName string, periodStart, periodEnd time.Time) ([]models.StatRow, error) {
	province, err := s.units.ProvinceByName(ctx, provinceName)
	if err != nil {
		return nil, fmt.Errorf("lookup province: %w", err)
	}
	if province == nil {
		s.logr.Warn("province not found", zap.String("name", provinceName))
		return []models.StatRow{}, nil
	}
	return s.stats.StatsForAdmin(ctx, province.AdminID, periodStart, periodEnd)
}
