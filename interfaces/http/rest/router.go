// Package rest exposes the project CRUD contract over HTTP with chi.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storycanvas/interfaces/http/rest/handlers"
	"storycanvas/interfaces/http/rest/middleware"
	"storycanvas/pkg/observability"
)

// Options tunes the router. Zero values disable the optional layers.
type Options struct {
	AllowedOrigins []string
	EnableCORS     bool
	RequestTimeout time.Duration
	Metrics        *observability.Collector
	Tracer         trace.Tracer
}

// Router creates and configures the HTTP router
type Router struct {
	service handlers.ProjectService
	logger  *zap.Logger
	opts    Options
}

// NewRouter creates a new router instance
func NewRouter(service handlers.ProjectService, logger *zap.Logger, opts Options) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{service: service, logger: logger, opts: opts}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	// Create router
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Metrics != nil {
		router.Use(middleware.Metrics(rt.opts.Metrics))
	}
	if rt.opts.Tracer != nil {
		router.Use(middleware.Tracing(rt.opts.Tracer))
	}
	if rt.opts.RequestTimeout > 0 {
		router.Use(chimiddleware.Timeout(rt.opts.RequestTimeout))
	}

	// CORS
	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-Trace-ID"},
			MaxAge:         300,
		}))
	}

	// Health and metrics
	router.Get("/health", rt.healthCheck)
	if rt.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Metrics.Handler())
	}

	// API routes
	projects := handlers.NewProjectHandler(rt.service, rt.logger)
	acts := handlers.NewActHandler(rt.service, rt.logger)
	plot := handlers.NewPlotPointHandler(rt.service, rt.logger)

	router.Route("/api/v1/projects", func(r chi.Router) {
		r.Post("/", projects.CreateProject)
		r.Get("/", projects.ListProjects)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", projects.GetProject)
			r.Put("/", projects.UpdateProject)
			r.Delete("/", projects.DeleteProject)
			r.Patch("/view", projects.UpdateView)

			r.Route("/characters", func(r chi.Router) {
				r.Post("/", acts.CreateCharacter)
				r.Put("/{characterID}", acts.UpdateCharacter)
				r.Delete("/{characterID}", acts.DeleteCharacter)
			})

			r.Route("/acts", func(r chi.Router) {
				r.Post("/", acts.CreateAct)
				r.Route("/{actID}", func(r chi.Router) {
					r.Put("/", acts.UpdateAct)
					r.Delete("/", acts.DeleteAct)

					r.Route("/plot-points", func(r chi.Router) {
						r.Post("/", plot.CreatePlotPoint)
						r.Route("/{plotPointID}", func(r chi.Router) {
							r.Put("/", plot.UpdatePlotPoint)
							r.Delete("/", plot.DeletePlotPoint)

							r.Route("/scenes", func(r chi.Router) {
								r.Post("/", plot.CreateScene)
								r.Put("/{sceneID}", plot.UpdateScene)
								r.Delete("/{sceneID}", plot.DeleteScene)
							})
						})
					})
				})
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
