package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/indices"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/models"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/raster"
)

// Detection thresholds. Exact values are part of the alert contract and
// must not drift.
const (
	NDVIThresholdLow  = 0.2  // below this vegetation is concerning
	NDVIHighSevCutoff = 0.1  // below this low_ndvi escalates to high
	NDVIDropThreshold = 0.15 // drop from baseline that fires ndvi_drop
	NDVIDropHighSev   = 0.25 // drop beyond this escalates to high
	NDWIThresholdHigh = 0.3  // above this suggests flooding
	MSIThresholdHigh  = 1.5  // moisture stress, needs SWIR band

	// BaselineWindowWeeks is the rolling window for baseline computation
	// once a historical index store exists.
	BaselineWindowWeeks = 8
)

// AlertStore persists anomaly alerts. Inserted records are immutable.
type AlertStore interface {
	Insert(ctx context.Context, alert *models.Alert) error
	Query(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
}

// Baseline carries rolling historical index means for one admin unit.
type Baseline struct {
	NDVI float64
}

// anomaly is one fired rule before persistence.
type anomaly struct {
	AlertType string
	Severity  int
	Message   string
	Evidence  map[string]float64
}

// AlertService evaluates the vegetation-index rule cascade over band stacks
// and persists fired rules as alerts. Rules run independently per index;
// several can fire in one pass.
type AlertService struct {
	units  AdminUnitFinder
	alerts AlertStore
	logr   *zap.Logger
}

func NewAlertService(units AdminUnitFinder, alerts AlertStore, logr *zap.Logger) *AlertService {
	return &AlertService{units: units, alerts: alerts, logr: logr}
}

// RollingBaseline returns the historical index means for the unit over the
// trailing window, or nil while no index time-series store exists. Callers
// must treat nil as "skip baseline-dependent rules", never as zero. When
// storage lands, the intended semantics are the plain mean of historical
// current-NDVI scalars inside the window.
func (s *AlertService) RollingBaseline(ctx context.Context, adminID uuid.UUID, at time.Time) (*Baseline, error) {
	windowStart := at.Add(-BaselineWindowWeeks * 7 * 24 * time.Hour)
	s.logr.Debug("rolling baseline unavailable, threshold rules only",
		zap.String("admin_id", adminID.String()),
		zap.Time("window_start", windowStart))
	return nil, nil
}

// detectNDVIAnomaly applies the NDVI rules in order: the absolute-threshold
// check first, then (only if it did not fire and a baseline exists) the
// baseline-drop check. At most one NDVI rule fires per pass.
func detectNDVIAnomaly(currentNDVI float64, baselineNDVI *float64) *anomaly {
	if currentNDVI < NDVIThresholdLow {
		severity := models.SeverityMedium
		if currentNDVI < NDVIHighSevCutoff {
			severity = models.SeverityHigh
		}
		return &anomaly{
			AlertType: "low_ndvi",
			Severity:  severity,
			Message:   fmt.Sprintf("Low vegetation index detected: NDVI = %.3f", currentNDVI),
			Evidence: map[string]float64{
				"current_ndvi": currentNDVI,
				"threshold":    NDVIThresholdLow,
			},
		}
	}

	if baselineNDVI != nil {
		drop := *baselineNDVI - currentNDVI
		if drop > NDVIDropThreshold {
			severity := models.SeverityMedium
			if drop > NDVIDropHighSev {
				severity = models.SeverityHigh
			}
			return &anomaly{
				AlertType: "ndvi_drop",
				Severity:  severity,
				Message:   fmt.Sprintf("Significant vegetation decline: NDVI dropped by %.3f", drop),
				Evidence: map[string]float64{
					"current_ndvi":  currentNDVI,
					"baseline_ndvi": *baselineNDVI,
					"drop":          drop,
					"threshold":     NDVIDropThreshold,
				},
			}
		}
	}

	return nil
}

// detectNDWIAnomaly fires on high water index, a possible flooding signal.
// Fixed medium severity.
func detectNDWIAnomaly(currentNDWI float64) *anomaly {
	if currentNDWI > NDWIThresholdHigh {
		return &anomaly{
			AlertType: "high_ndwi",
			Severity:  models.SeverityMedium,
			Message:   fmt.Sprintf("High water index detected: NDWI = %.3f", currentNDWI),
			Evidence: map[string]float64{
				"current_ndwi": currentNDWI,
				"threshold":    NDWIThresholdHigh,
			},
		}
	}
	return nil
}

// createAlert persists one fired rule immediately (alerts are not batched).
func (s *AlertService) createAlert(
	ctx context.Context,
	a *anomaly,
	adminID *uuid.UUID,
	periodStart, periodEnd *time.Time,
	sourceAssetID *uuid.UUID,
) (*models.Alert, error) {
	alert := &models.Alert{
		AlertType:     a.AlertType,
		Severity:      a.Severity,
		AdminID:       adminID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Evidence:      a.Evidence,
		Message:       a.Message,
		SourceAssetID: sourceAssetID,
	}
	if err := s.alerts.Insert(ctx, alert); err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}

	s.logr.Info("created alert",
		zap.String("alert_type", alert.AlertType),
		zap.Int("severity", alert.Severity),
		zap.Any("evidence", alert.Evidence))
	return alert, nil
}

// Detect runs the full rule cascade over a multi-temporal band stack and
// returns the alerts created in this invocation. Current index values are
// the pixel means of the last time step. An empty slice is a valid
// no-anomaly outcome. Missing baseline degrades detection to threshold-only
// rules; it never raises.
func (s *AlertService) Detect(
	ctx context.Context,
	stack *raster.BandStack,
	adminID *uuid.UUID,
	periodStart, periodEnd *time.Time,
	sourceAssetID *uuid.UUID,
) ([]*models.Alert, error) {
	currentNDVI, err := indices.MeanNDVI(stack)
	if err != nil {
		return nil, err
	}

	var baselineNDVI *float64
	if adminID != nil {
		at := time.Now().UTC()
		if periodEnd != nil {
			at = *periodEnd
		}
		baseline, err := s.RollingBaseline(ctx, *adminID, at)
		if err != nil {
			return nil, err
		}
		if baseline != nil {
			baselineNDVI = &baseline.NDVI
		}
	}

	created := make([]*models.Alert, 0, 2)

	if a := detectNDVIAnomaly(currentNDVI, baselineNDVI); a != nil {
		alert, err := s.createAlert(ctx, a, adminID, periodStart, periodEnd, sourceAssetID)
		if err != nil {
			return nil, err
		}
		created = append(created, alert)
	} else {
		s.logr.Debug("ndvi rules did not fire",
			zap.Float64("current_ndvi", currentNDVI),
			zap.Bool("baseline_present", baselineNDVI != nil))
	}

	currentNDWI, err := indices.MeanNDWI(stack)
	if err != nil {
		return nil, err
	}

	if a := detectNDWIAnomaly(currentNDWI); a != nil {
		alert, err := s.createAlert(ctx, a, adminID, periodStart, periodEnd, sourceAssetID)
		if err != nil {
			return nil, err
		}
		created = append(created, alert)
	} else {
		s.logr.Debug("ndwi rule did not fire", zap.Float64("current_ndwi", currentNDWI))
	}

	s.logr.Info("anomaly detection complete", zap.Int("alerts", len(created)))
	return created, nil
}

// Query lists stored alerts under the filter, newest first. A non-empty
// AdminName resolves by substring to at most one unit (first hit); when no
// unit matches, the name filter is dropped entirely rather than forcing an
// empty result, matching the original query behaviour.
func (s *AlertService) Query(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	if filter.AdminName != "" && filter.AdminID == nil {
		unit, err := s.units.FirstByName(ctx, filter.AdminName)
		if err != nil {
			return nil, fmt.Errorf("resolve admin name: %w", err)
		}
		if unit != nil {
			filter.AdminID = &unit.AdminID
		}
	}
	return s.alerts.Query(ctx, filter)
}
