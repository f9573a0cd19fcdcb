package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/store"
)

type ClassesHandler struct {
	classes *store.CropClassStore
	logr    *zap.Logger
}

func NewClassesHandler(classes *store.CropClassStore, logr *zap.Logger) *ClassesHandler {
	return &ClassesHandler{classes: classes, logr: logr}
}

// GetCropClasses serves the seeded crop-class lookup keyed by class id.
func (h *ClassesHandler) GetCropClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.classes.All(r.Context())
	if err != nil {
		h.logr.Error("failed to fetch crop classes", zap.Error(err))
		http.Error(w, "failed to fetch crop classes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": classes})
}
