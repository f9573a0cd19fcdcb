package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/models"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/services"
)

type AlertsHandler struct {
	service *services.AlertService
	logr    *zap.Logger
}

func NewAlertsHandler(svc *services.AlertService, logr *zap.Logger) *AlertsHandler {
	return &AlertsHandler{service: svc, logr: logr}
}

type alertResponse struct {
	*models.Alert
	SeverityLabel string `json:"severity_label"`
}

// GetAlerts serves stored alerts newest-first. Filters: adminName
// (substring, first matching unit only), from/to (RFC3339, on created_at),
// alertType, severity (exact), limit.
func (h *AlertsHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.AlertFilter{
		AdminName: q.Get("adminName"),
		AlertType: q.Get("alertType"),
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, "invalid from")
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, "invalid to")
			return
		}
		filter.To = &t
	}
	if v := q.Get("severity"); v != "" {
		sev, err := strconv.Atoi(v)
		if err != nil || sev < models.SeverityLow || sev > models.SeverityHigh {
			writeJSON(w, http.StatusBadRequest, "invalid severity")
			return
		}
		filter.Severity = sev
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeJSON(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	alerts, err := h.service.Query(r.Context(), filter)
	if err != nil {
		h.logr.Error("failed to query alerts", zap.Error(err))
		http.Error(w, "failed to query alerts", http.StatusInternalServerError)
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{Alert: a, SeverityLabel: a.SeverityLabel()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}
