package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AreaStat is one fact row: crop area for (admin unit, class, period).
// The four-column key is unique; all writes go through the ON CONFLICT
// upsert in the store, so repeated aggregation of the same tile/period is
// idempotent.
type AreaStat struct {
	bun.BaseModel `bun:"table:area_stats,alias:s"`

	StatID         uuid.UUID  `bun:"stat_id,pk,type:uuid,default:uuid_generate_v4()" json:"stat_id"`
	AdminID        uuid.UUID  `bun:"admin_id,type:uuid,notnull" json:"admin_id"`
	ClassID        int        `bun:"class_id,notnull" json:"class_id"`
	PeriodStart    time.Time  `bun:"period_start,notnull" json:"period_start"`
	PeriodEnd      time.Time  `bun:"period_end,notnull" json:"period_end"`
	AreaHa         float64    `bun:"area_ha,notnull" json:"area_ha"`
	PixelCount     int64      `bun:"pixel_count,notnull" json:"pixel_count"`
	SourceAssetID  *uuid.UUID `bun:"source_asset_id,type:uuid" json:"source_asset_id,omitempty"`
	ConfidenceLow  *float64   `bun:"confidence_low" json:"confidence_low,omitempty"`
	ConfidenceHigh *float64   `bun:"confidence_high" json:"confidence_high,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// ClassStat is the in-memory zonal histogram entry for one crop class.
type ClassStat struct {
	ClassID    int     `json:"class_id"`
	PixelCount int64   `json:"pixel_count"`
	AreaHa     float64 `json:"area_ha"`
}

// StatRow is a query-helper result: an area stat joined with its class
// metadata, ordered by area descending.
type StatRow struct {
	ClassID    int     `bun:"class_id" json:"class_id"`
	Code       string  `bun:"code" json:"code"`
	Name       string  `bun:"name_en" json:"name"`
	AreaHa     float64 `bun:"area_ha" json:"area_ha"`
	PixelCount int64   `bun:"pixel_count" json:"pixel_count"`
}
