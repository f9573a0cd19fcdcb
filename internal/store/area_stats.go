package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/models"
)

type AreaStatStore struct {
	db *bun.DB
}

func NewAreaStatStore(db *bun.DB) *AreaStatStore {
	return &AreaStatStore{db: db}
}

// Upsert writes one area stat under the (admin_id, class_id, period_start,
// period_end) unique key. Conflict resolution is native insert-on-conflict-
// update, so two concurrent writes for the same key serialize in Postgres
// and never produce duplicates or lost updates. Repeated identical calls
// leave a single row with the latest values.
func (s *AreaStatStore) Upsert(ctx context.Context, stat *models.AreaStat) error {
	_, err := s.db.NewInsert().Model(stat).
		On("CONFLICT (admin_id, class_id, period_start, period_end) DO UPDATE").
		Set("area_ha = EXCLUDED.area_ha").
		Set("pixel_count = EXCLUDED.pixel_count").
		Set("source_asset_id = EXCLUDED.source_asset_id").
		Set("confidence_low = EXCLUDED.confidence_low").
		Set("confidence_high = EXCLUDED.confidence_high").
		Set("updated_at = now()").
		Returning("*").
		Exec(ctx)
	return err
}

// StatsForAdmin lists a unit's stats for the exact period bounds, joined
// with class metadata, largest area first. Period matching is equality, not
// overlap.
func (s *AreaStatStore) StatsForAdmin(ctx context.Context, adminID uuid.UUID, periodStart, periodEnd time.Time) ([]models.StatRow, error) {
	var rows []models.StatRow
	err := s.db.NewRaw(`
        SELECT c.class_id, c.code, c.name_en, s.area_ha, s.pixel_count
        FROM area_stats s
        JOIN crop_classes c ON s.class_id = c.class_id
        WHERE s.admin_id = ?
        AND s.period_start = ?
        AND s.period_end = ?
        ORDER BY s.area_ha DESC
    `, adminID, periodStart, periodEnd).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SummedLevelStats sums stats across every unit at the given level for the
// exact period bounds. Country queries fall back to this over provinces
// when no level-0 unit exists.
func (s *AreaStatStore) SummedLevelStats(ctx context.Context, level int, periodStart, periodEnd time.Time) ([]models.StatRow, error) {
	var rows []models.StatRow
	err := s.db.NewRaw(`
        SELECT c.class_id, c.code, c.name_en,
               SUM(s.area_ha) AS area_ha,
               SUM(s.pixel_count) AS pixel_count
        FROM area_stats s
        JOIN crop_classes c ON s.class_id = c.class_id
        JOIN admin_units a ON s.admin_id = a.admin_id
        WHERE a.level = ?
        AND s.period_start = ?
        AND s.period_end = ?
        GROUP BY c.class_id, c.code, c.name_en
        ORDER BY area_ha DESC
    `, level, periodStart, periodEnd).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
