package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/models"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/raster"
)

// fakeAlertStore keeps inserted alerts in memory and answers filtered
// queries the way the SQL store does.
type fakeAlertStore struct {
	alerts []*models.Alert
	now    time.Time
}

func (f *fakeAlertStore) Insert(_ context.Context, alert *models.Alert) error {
	alert.AlertID = uuid.New()
	if f.now.IsZero() {
		f.now = time.Now().UTC()
	}
	f.now = f.now.Add(time.Second)
	alert.CreatedAt = f.now
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeAlertStore) Query(_ context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var out []*models.Alert
	for _, a := range f.alerts {
		if filter.AdminID != nil && (a.AdminID == nil || *a.AdminID != *filter.AdminID) {
			continue
		}
		if filter.From != nil && a.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.CreatedAt.After(*filter.To) {
			continue
		}
		if filter.AlertType != "" && a.AlertType != filter.AlertType {
			continue
		}
		if filter.Severity != 0 && a.Severity != filter.Severity {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newAlertService(units AdminUnitFinder, alerts AlertStore) *AlertService {
	return NewAlertService(units, alerts, zap.NewNop())
}

func uniformGrid(h, w int, v float64) [][]float64 {
	grid := make([][]float64, h)
	for i := range grid {
		grid[i] = make([]float64, w)
		for j := range grid[i] {
			grid[i][j] = v
		}
	}
	return grid
}

// stackFor builds a single-frame band stack with uniform band values.
func stackFor(blue, green, red, nir float64) *raster.BandStack {
	return &raster.BandStack{
		Frames: []raster.Frame{{
			uniformGrid(4, 4, blue),
			uniformGrid(4, 4, green),
			uniformGrid(4, 4, red),
			uniformGrid(4, 4, nir),
		}},
		BBox: mekongBBox,
		EPSG: "EPSG:4326",
	}
}

// --- rule boundaries ---------------------------------------------------------

func TestDetectNDVIAnomaly_AbsoluteThreshold(t *testing.T) {
	tests := []struct {
		name         string
		current      float64
		wantFire     bool
		wantSeverity int
	}{
		{name: "well below high cutoff", current: 0.0999, wantFire: true, wantSeverity: models.SeverityHigh},
		{name: "between cutoffs", current: 0.15, wantFire: true, wantSeverity: models.SeverityMedium},
		{name: "just under threshold", current: 0.199, wantFire: true, wantSeverity: models.SeverityMedium},
		{name: "exactly at threshold does not fire", current: 0.20, wantFire: false},
		{name: "healthy", current: 0.65, wantFire: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := detectNDVIAnomaly(tt.current, nil)
			if !tt.wantFire {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, "low_ndvi", a.AlertType)
			assert.Equal(t, tt.wantSeverity, a.Severity)
			assert.Equal(t, tt.current, a.Evidence["current_ndvi"])
			assert.Equal(t, NDVIThresholdLow, a.Evidence["threshold"])
		})
	}
}

func TestDetectNDVIAnomaly_BaselineDrop(t *testing.T) {
	baseline := 0.5

	tests := []struct {
		name         string
		current      float64
		wantFire     bool
		wantSeverity int
	}{
		{name: "moderate drop", current: 0.349, wantFire: true, wantSeverity: models.SeverityMedium}, // drop 0.151
		{name: "severe drop", current: 0.24, wantFire: true, wantSeverity: models.SeverityHigh},      // drop 0.26
		{name: "drop below threshold does not fire", current: 0.36, wantFire: false}, // drop 0.14
		{name: "small drop", current: 0.45, wantFire: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := detectNDVIAnomaly(tt.current, &baseline)
			if !tt.wantFire {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, "ndvi_drop", a.AlertType)
			assert.Equal(t, tt.wantSeverity, a.Severity)
			assert.Equal(t, baseline, a.Evidence["baseline_ndvi"])
			assert.InDelta(t, baseline-tt.current, a.Evidence["drop"], 1e-12)
		})
	}
}

func TestDetectNDVIAnomaly_AbsoluteRuleWinsOverDrop(t *testing.T) {
	// current below the absolute threshold AND far below baseline: only the
	// absolute rule fires.
	baseline := 0.5
	a := detectNDVIAnomaly(0.19, &baseline)
	require.NotNil(t, a)
	assert.Equal(t, "low_ndvi", a.AlertType)
}

func TestDetectNDVIAnomaly_NilBaselineSkipsDropRule(t *testing.T) {
	// healthy absolute value, no baseline: nothing fires even though any
	// baseline above 0.45 would have
	assert.Nil(t, detectNDVIAnomaly(0.3, nil))
}

func TestDetectNDWIAnomaly(t *testing.T) {
	a := detectNDWIAnomaly(0.35)
	require.NotNil(t, a)
	assert.Equal(t, "high_ndwi", a.AlertType)
	assert.Equal(t, models.SeverityMedium, a.Severity)
	assert.Equal(t, "High water index detected: NDWI = 0.350", a.Message)
	assert.Equal(t, 0.35, a.Evidence["current_ndwi"])

	// strict greater-than
	assert.Nil(t, detectNDWIAnomaly(0.30))
	assert.Nil(t, detectNDWIAnomaly(-0.1))
}

// --- full detection pass -----------------------------------------------------

func TestDetect_LowNDVI(t *testing.T) {
	store := &fakeAlertStore{}
	svc := newAlertService(&fakeUnitFinder{}, store)

	// NDVI = (1.0999-0.9001)/(1.0999+0.9001) = 0.0999; NDWI = 0 with green == nir
	stack := stackFor(0.1, 1.0999, 0.9001, 1.0999)

	adminID := uuid.New()
	periodStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	alerts, err := svc.Detect(context.Background(), stack, &adminID, &periodStart, &periodEnd, nil)
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, "low_ndvi", alert.AlertType)
	assert.Equal(t, models.SeverityHigh, alert.Severity)
	assert.Equal(t, "Low vegetation index detected: NDVI = 0.100", alert.Message)
	assert.InDelta(t, 0.0999, alert.Evidence["current_ndvi"], 1e-9)
	require.NotNil(t, alert.AdminID)
	assert.Equal(t, adminID, *alert.AdminID)
	assert.Len(t, store.alerts, 1)
}

func TestDetect_HighNDWIOnly(t *testing.T) {
	store := &fakeAlertStore{}
	svc := newAlertService(&fakeUnitFinder{}, store)

	// NDWI = (1.35-0.65)/(1.35+0.65) = 0.35; NDVI = (0.65-0.3)/(0.65+0.3) ~= 0.368
	stack := stackFor(0.1, 1.35, 0.3, 0.65)

	alerts, err := svc.Detect(context.Background(), stack, nil, nil, nil, nil)
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, "high_ndwi", alerts[0].AlertType)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)
}

func TestDetect_BothRulesFire(t *testing.T) {
	store := &fakeAlertStore{}
	svc := newAlertService(&fakeUnitFinder{}, store)

	// NDVI = (0.1-0.9)/(0.1+0.9) = -0.8 (severity high)
	// NDWI = (1.35-0.1)/(1.35+0.1) ~= 0.862 (fires)
	stack := stackFor(0.1, 1.35, 0.9, 0.1)

	alerts, err := svc.Detect(context.Background(), stack, nil, nil, nil, nil)
	require.NoError(t, err)

	require.Len(t, alerts, 2)
	assert.Equal(t, "low_ndvi", alerts[0].AlertType)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, "high_ndwi", alerts[1].AlertType)
}

func TestDetect_NoAnomalies(t *testing.T) {
	store := &fakeAlertStore{}
	svc := newAlertService(&fakeUnitFinder{}, store)

	// NDVI = (0.8-0.2)/(0.8+0.2) = 0.6, NDWI = (0.3-0.8)/(0.3+0.8) < 0
	stack := stackFor(0.1, 0.3, 0.2, 0.8)

	alerts, err := svc.Detect(context.Background(), stack, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, store.alerts)
}

func TestDetect_UsesLastTimeStep(t *testing.T) {
	store := &fakeAlertStore{}
	svc := newAlertService(&fakeUnitFinder{}, store)

	stressed := raster.Frame{
		uniformGrid(4, 4, 0.1), uniformGrid(4, 4, 0.2),
		uniformGrid(4, 4, 0.9), uniformGrid(4, 4, 0.1),
	}
	healthy := raster.Frame{
		uniformGrid(4, 4, 0.1), uniformGrid(4, 4, 0.3),
		uniformGrid(4, 4, 0.2), uniformGrid(4, 4, 0.8),
	}
	stack := &raster.BandStack{Frames: []raster.Frame{stressed, healthy}, BBox: mekongBBox}

	alerts, err := svc.Detect(context.Background(), stack, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestDetect_EmptyStack(t *testing.T) {
	svc := newAlertService(&fakeUnitFinder{}, &fakeAlertStore{})

	_, err := svc.Detect(context.Background(), &raster.BandStack{}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, raster.ErrEmptyRaster)
}

func TestRollingBaseline_Unimplemented(t *testing.T) {
	svc := newAlertService(&fakeUnitFinder{}, &fakeAlertStore{})

	baseline, err := svc.RollingBaseline(context.Background(), uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, baseline)
}

// --- queries -----------------------------------------------------------------

func seedAlerts(t *testing.T, store *fakeAlertStore, adminA, adminB uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, &models.Alert{AlertType: "low_ndvi", Severity: 3, AdminID: &adminA, Message: "a1"}))
	require.NoError(t, store.Insert(ctx, &models.Alert{AlertType: "high_ndwi", Severity: 2, AdminID: &adminB, Message: "b1"}))
	require.NoError(t, store.Insert(ctx, &models.Alert{AlertType: "low_ndvi", Severity: 2, AdminID: &adminA, Message: "a2"}))
}

func TestQuery_AdminNameResolvesToFirstHitOnly(t *testing.T) {
	adminA := uuid.New()
	adminB := uuid.New()

	store := &fakeAlertStore{}
	seedAlerts(t, store, adminA, adminB)

	// the substring matches several units; only the first lookup hit counts
	finder := &fakeUnitFinder{first: &models.AdminUnit{AdminID: adminA, Level: models.LevelProvince, Name: "An Giang"}}
	svc := newAlertService(finder, store)

	alerts, err := svc.Query(context.Background(), models.AlertFilter{AdminName: "Giang"})
	require.NoError(t, err)

	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, adminA, *a.AdminID)
	}
	// newest first
	assert.Equal(t, "a2", alerts[0].Message)
	assert.Equal(t, "a1", alerts[1].Message)
}

func TestQuery_UnknownAdminNameDropsFilter(t *testing.T) {
	store := &fakeAlertStore{}
	seedAlerts(t, store, uuid.New(), uuid.New())

	svc := newAlertService(&fakeUnitFinder{first: nil}, store)

	alerts, err := svc.Query(context.Background(), models.AlertFilter{AdminName: "Nowhere"})
	require.NoError(t, err)
	assert.Len(t, alerts, 3)
}

func TestQuery_TypeSeverityAndLimit(t *testing.T) {
	adminA := uuid.New()
	adminB := uuid.New()

	store := &fakeAlertStore{}
	seedAlerts(t, store, adminA, adminB)

	svc := newAlertService(&fakeUnitFinder{}, store)

	byType, err := svc.Query(context.Background(), models.AlertFilter{AlertType: "low_ndvi"})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	bySeverity, err := svc.Query(context.Background(), models.AlertFilter{Severity: models.SeverityHigh})
	require.NoError(t, err)
	require.Len(t, bySeverity, 1)
	assert.Equal(t, "a1", bySeverity[0].Message)

	limited, err := svc.Query(context.Background(), models.AlertFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "a2", limited[0].Message)
}
