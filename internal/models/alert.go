package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Alert severity levels. Ordinal: higher is worse.
const (
	SeverityLow    = 1
	SeverityMedium = 2
	SeverityHigh   = 3
)

// Alert is an immutable anomaly event. Evidence carries the numeric values
// that justified the alert (current index, threshold, drop, ...). No update
// path exists; downstream only queries.
type Alert struct {
	bun.BaseModel `bun:"table:alerts,alias:al"`

	AlertID       uuid.UUID          `bun:"alert_id,pk,type:uuid,default:uuid_generate_v4()" json:"alert_id"`
	AlertType     string             `bun:"alert_type,notnull" json:"alert_type"`
	Severity      int                `bun:"severity,notnull" json:"severity"`
	AdminID       *uuid.UUID         `bun:"admin_id,type:uuid" json:"admin_id,omitempty"`
	GeomWKT       *string            `bun:"geom_wkt" json:"geom_wkt,omitempty"`
	PeriodStart   *time.Time         `bun:"period_start" json:"period_start,omitempty"`
	PeriodEnd     *time.Time         `bun:"period_end" json:"period_end,omitempty"`
	Evidence      map[string]float64 `bun:"evidence,type:jsonb" json:"evidence"`
	Message       string             `bun:"message,notnull" json:"message"`
	SourceAssetID *uuid.UUID         `bun:"source_asset_id,type:uuid" json:"source_asset_id,omitempty"`
	CreatedAt     time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// SeverityLabel maps the ordinal severity to its display name.
func (a *Alert) SeverityLabel() string {
	switch a.Severity {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return "unknown"
	}
}

// AlertFilter narrows an alert query. AdminName is a substring match that
// resolves to at most one unit (the first lookup hit); when no unit matches
// the name the filter is ignored, mirroring the original behaviour.
type AlertFilter struct {
	AdminName string
	AdminID   *uuid.UUID
	From      *time.Time
	To        *time.Time
	AlertType string
	Severity  int
	Limit     int
}
