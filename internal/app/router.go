package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/assignment"
	"github.com/tessera-hq/tessera/internal/auth"
	"github.com/tessera-hq/tessera/internal/events"
	"github.com/tessera-hq/tessera/internal/observability"
	"github.com/tessera-hq/tessera/internal/principals"
	"github.com/tessera-hq/tessera/internal/shared"
	"github.com/tessera-hq/tessera/internal/stakeholders"
	"github.com/tessera-hq/tessera/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	SessionManager      *shared.SessionManager
	AccessMiddleware    access.Middleware
	AuthHandler         *auth.Handler
	EventsHandler       *events.Handler
	StakeholdersHandler *stakeholders.Handler
	AssignmentHandler   *assignment.Handler
	PrincipalsHandler   *principals.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with Tessera defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.AccessMiddleware.Authenticate)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.EventsHandler != nil {
		r.Route("/events", func(r chi.Router) {
			params.EventsHandler.MountRoutes(r)
			if params.AssignmentHandler != nil {
				r.Route("/{id}/stakeholders", params.AssignmentHandler.MountRoutes)
			}
		})
	}
	if params.StakeholdersHandler != nil {
		r.Route("/stakeholders", params.StakeholdersHandler.MountRoutes)
	}
	if params.PrincipalsHandler != nil {
		r.Route("/principals", func(r chi.Router) {
			r.Use(params.AccessMiddleware.Require(access.ActionManageUsers))
			params.PrincipalsHandler.MountRoutes(r)
		})
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
