package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Administrative hierarchy levels.
const (
	LevelCountry  = 0
	LevelProvince = 1
	LevelDistrict = 2
)

// AdminUnit is a node in the country -> province -> district tree.
// The PostGIS geometry column is never scanned into Go; all intersection
// work happens in SQL. Hierarchy rule (a level-N unit has a level N-1
// parent) is advisory only: seed data does not always satisfy it and the
// aggregation path never walks parents.
type AdminUnit struct {
	bun.BaseModel `bun:"table:admin_units,alias:au"`

	AdminID  uuid.UUID  `bun:"admin_id,pk,type:uuid,default:uuid_generate_v4()" json:"admin_id"`
	Level    int        `bun:"level,notnull" json:"level"`
	Name     string     `bun:"name,notnull" json:"name"`
	ParentID *uuid.UUID `bun:"parent_id,type:uuid" json:"parent_id,omitempty"`
}

// UnitCoverage is one row of the geometry intersection query: how much of
// the unit's own area falls inside the raster bbox. CoverageRatio is a
// pointer because ST_Area can yield NULL for degenerate geometries; callers
// skip nil and non-positive ratios.
type UnitCoverage struct {
	AdminID       uuid.UUID `bun:"admin_id"`
	Name          string    `bun:"name"`
	CoverageRatio *float64  `bun:"coverage_ratio"`
}

// CropClass is the immutable classification lookup seeded at provisioning
// time. The pipeline reads it, never writes it.
type CropClass struct {
	bun.BaseModel `bun:"table:crop_classes,alias:cc"`

	ClassID    int    `bun:"class_id,pk" json:"class_id"`
	Code       string `bun:"code,notnull,unique" json:"code"`
	NameVI     string `bun:"name_vi" json:"name_vi"`
	NameEN     string `bun:"name_en" json:"name_en"`
	IsFoodCrop bool   `bun:"is_food_crop" json:"is_food_crop"`
	ColorHex   string `bun:"color_hex" json:"color_hex"`
}
