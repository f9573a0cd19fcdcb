package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/uptrace/bun"

	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/config"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/handlers"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/logger"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/services"
	"github.com/PrORain-HCMUS/SOTS-Hackathon/internal/store"
)

func NewRouter(db *bun.DB, cfg *config.Config, logr *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// CORS middleware with config
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// stores (Postgres + PostGIS)
	units := store.NewAdminUnitStore(db)
	areaStats := store.NewAreaStatStore(db)
	alerts := store.NewAlertStore(db)
	classes := store.NewCropClassStore(db)

	// core services
	aggSvc := services.NewAggregationService(units, areaStats, logr.Logger)
	alertSvc := services.NewAlertService(units, alerts, logr.Logger)

	statsHandler := handlers.NewStatsHandler(aggSvc, logr.Logger)
	alertsHandler := handlers.NewAlertsHandler(alertSvc, logr.Logger)
	classesHandler := handlers.NewClassesHandler(classes, logr.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("ok"))
		if err != nil {
			return
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/stats", func(r chi.Router) {
			r.Get("/country", statsHandler.GetCountryStats)
			r.Get("/province/{name}", statsHandler.GetProvinceStats)
		})

		r.Get("/alerts", alertsHandler.GetAlerts)
		r.Get("/classes", classesHandler.GetCropClasses)
	})

	return r
}
