package store

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/models"
)

const defaultAlertLimit = 100

type AlertStore struct {
	db *bun.DB
}

func NewAlertStore(db *bun.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Insert persists one alert. Alerts are immutable; there is no update path.
func (s *AlertStore) Insert(ctx context.Context, alert *models.Alert) error {
	_, err := s.db.NewInsert().Model(alert).
		Returning("*").
		Exec(ctx)
	return err
}

// Query lists alerts newest-first under the given filter. Name resolution
// to AdminID happens in the service; here an unset AdminID simply means no
// admin restriction.
func (s *AlertStore) Query(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAlertLimit
	}

	var alerts []*models.Alert
	q := s.db.NewSelect().Model(&alerts)

	if filter.AdminID != nil {
		q = q.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	if filter.AlertType != "" {
		q = q.Where("alert_type = ?", filter.AlertType)
	}
	if filter.Severity != 0 {
		q = q.Where("severity = ?", filter.Severity)
	}

	err := q.OrderExpr("created_at DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return alerts, nil
}
