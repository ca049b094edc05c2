package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bibbank/appraisal/internal/application/usecase"
	"github.com/bibbank/appraisal/pkg/auth"
)

// RouterConfig holds what the HTTP surface is built from. Metrics may be
// nil, in which case /metrics is not mounted.
type RouterConfig struct {
	UseCases   *usecase.Set
	JWTService *auth.JWTService
	Health     *HealthHandler
	Metrics    http.Handler
	Logger     *slog.Logger
}

// NewRouter creates the chi router with the health checks, the metrics endpoint
// and the authenticated appraisal API under /api/v1.
func NewRouter(cfg RouterConfig) http.Handler {
	h := NewHandlers(cfg.UseCases, cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(r)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.HTTPMiddleware(cfg.JWTService))

		// Ad hoc evaluations.
		r.Post("/schedules", h.ComputeSchedule)
		r.Post("/ratios", h.ComputeRatios)
		r.Post("/scores", h.ComputeScore)

		// Applications.
		r.Route("/applications", func(r chi.Router) {
			r.Get("/", h.ListApplications)
			r.Post("/", h.CreateApplication)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetApplication)
				r.Patch("/financials", h.UpdateFinancials)
				r.Post("/submit", h.SubmitApplication)
				r.Put("/decisions/{stage}", h.RecordDecision)
				r.Post("/visit-plan", h.PlanVisit)
				r.Post("/committee", h.SendToCommittee)
				r.Post("/cancel", h.CancelApplication)

				r.Get("/schedule", h.ApplicationSchedule)
				r.Get("/ratios", h.ApplicationRatios)
				r.Get("/score", h.ApplicationScore)
			})
		})

		r.Get("/statistics", h.Statistics)
	})

	return r
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
