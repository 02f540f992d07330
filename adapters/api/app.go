// Package api exposes the engine over a JSON HTTP surface: assignment,
// event tracking, results, and a thin authoring slice.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gosplit/app"
	"gosplit/internal"
	"gosplit/ports"
)

// App wires the HTTP routes to the application services.
type App struct {
	router      *chi.Mux
	assignments *app.AssignmentService
	tracking    *app.TrackingService
	results     *app.ResultsService
	repo        ports.ExperimentRepository
	log         *internal.Logger
}

// NewApp creates the HTTP application.
func NewApp(assignments *app.AssignmentService, tracking *app.TrackingService, results *app.ResultsService, repo ports.ExperimentRepository, log *internal.Logger) *App {
	if log == nil {
		log = internal.DefaultLogger
	}
	a := &App{
		router:      chi.NewRouter(),
		assignments: assignments,
		tracking:    tracking,
		results:     results,
		repo:        repo,
		log:         log,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// Router returns the configured handler.
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(a.requestLogger)
	a.router.Use(middleware.Recoverer)
}

func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Route("/api", func(r chi.Router) {
		r.Post("/assign", a.handleAssign)
		r.Delete("/assignments", a.handleClearAssignments)

		r.Post("/events/exposure", a.handleTrackExposure)
		r.Post("/events/conversion", a.handleTrackConversion)

		r.Post("/experiments", a.handleSaveExperiment)
		r.Post("/experiments/{id}/status", a.handleUpdateStatus)
		r.Get("/experiments/{id}/results", a.handleResults)
		r.Get("/experiments/{id}/metrics", a.handleMetricSummaries)

		r.Get("/sample-size", a.handleSampleSize)
	})
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.log.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
