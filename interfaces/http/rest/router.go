package rest

import (
	"context"
	"net/http"
	"time"

	"aura-backend/application/commands/bus"
	querybus "aura-backend/application/queries/bus"
	"aura-backend/interfaces/http/rest/handlers"
	"aura-backend/interfaces/http/rest/middleware"
	"aura-backend/pkg/common"
	pkgerrors "aura-backend/pkg/errors"
	"aura-backend/pkg/observability"
	"aura-backend/pkg/ratelimit"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// readinessTimeout bounds dependency checks on /ready
const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck = func(ctx context.Context) error

// Options toggles the optional parts of the HTTP surface
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	// Metrics is served on /metrics and observes every request when set
	Metrics *observability.Collector
	// Tracer opens an X-Ray segment per request when set
	Tracer    *observability.Tracer
	Readiness []ReadinessCheck
	// RateLimiter caps requests per client IP on /api when set
	RateLimiter *ratelimit.SlidingWindowLimiter
	Debug       bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	opts       Options
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	opts Options,
	logger *zap.Logger,
) *Router {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		opts:       opts,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	if rt.opts.Tracer != nil {
		router.Use(rt.opts.Tracer.Middleware)
	}
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Metrics != nil {
		router.Use(middleware.Metrics(rt.opts.Metrics))
	}
	router.Use(errorHandler.Middleware)

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck(errorHandler))
	if rt.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.opts.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		if rt.opts.RateLimiter != nil {
			r.Use(middleware.RateLimit(rt.opts.RateLimiter, errorHandler, rt.logger))
		}

		statusHandler := handlers.NewStatusHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
		r.Get("/", statusHandler.Root)
		r.Post("/status", statusHandler.CreateStatusCheck)
		r.Get("/status", statusHandler.ListStatusChecks)

		r.Route("/circles", func(r chi.Router) {
			circleHandler := handlers.NewCircleHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
			r.Post("/join", circleHandler.JoinCircle)
			r.Get("/{circleID}", circleHandler.GetCircle)
			r.Get("/{circleID}/members", circleHandler.GetCircleMembers)
		})

		r.Route("/messages", func(r chi.Router) {
			messageHandler := handlers.NewMessageHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
			r.Post("/", messageHandler.CreateMessage)
			r.Get("/{circleID}", messageHandler.ListMessages)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	_ = common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck runs every registered dependency check
func (rt *Router) readinessCheck(errorHandler *pkgerrors.ErrorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
		defer cancel()

		for _, check := range rt.opts.Readiness {
			if err := check(ctx); err != nil {
				rt.logger.Warn("Readiness check failed", zap.Error(err))
				errorHandler.HandleStatus(w, req, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		_ = common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
