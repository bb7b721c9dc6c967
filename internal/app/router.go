package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hearth-erp/hearth-erp/internal/assignments"
	"github.com/hearth-erp/hearth-erp/internal/catalog"
	"github.com/hearth-erp/hearth-erp/internal/documents"
	"github.com/hearth-erp/hearth-erp/internal/observability"
	"github.com/hearth-erp/hearth-erp/internal/projects"
	"github.com/hearth-erp/hearth-erp/internal/teams"
	"github.com/hearth-erp/hearth-erp/internal/tracking"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	ProjectsHandler    *projects.Handler
	CatalogHandler     *catalog.Handler
	DocumentsHandler   *documents.Handler
	AssignmentsHandler *assignments.Handler
	TeamsHandler       *teams.Handler
	TrackingHandler    *tracking.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Hearth defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.ProjectsHandler.MountRoutes(r)
	params.CatalogHandler.MountRoutes(r)
	params.DocumentsHandler.MountRoutes(r)
	params.AssignmentsHandler.MountRoutes(r)
	params.TeamsHandler.MountRoutes(r)
	params.TrackingHandler.MountRoutes(r)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
