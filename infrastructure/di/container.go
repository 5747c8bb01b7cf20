package di

import (
	"net/http"

	"aura-backend/application/commands/bus"
	"aura-backend/application/ports"
	querybus "aura-backend/application/queries/bus"
	"aura-backend/application/services"
	"aura-backend/infrastructure/config"
	"aura-backend/interfaces/http/rest"
	"aura-backend/pkg/observability"
	"aura-backend/pkg/ratelimit"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Storage     *Storage
	Publisher   ports.EventPublisher
	Metrics     *observability.Collector
	Tracer      *observability.Tracer
	RateLimiter *ratelimit.SlidingWindowLimiter
	Allocator   *services.CircleAllocator
	Recorder    *services.MessageRecorder
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
}

// Router builds the HTTP router for this container
func (c *Container) Router() *rest.Router {
	opts := rest.Options{
		EnableCORS:     c.Config.EnableCORS,
		AllowedOrigins: c.Config.CORSAllowedOrigins,
		Tracer:         c.Tracer,
		Readiness:      c.Storage.Readiness,
		RateLimiter:    c.RateLimiter,
		Debug:          c.Config.IsDevelopment(),
	}
	if c.Config.EnableMetrics {
		opts.Metrics = c.Metrics
	}
	return rest.NewRouter(c.CommandBus, c.QueryBus, opts, c.Logger)
}

// HTTPHandler returns the fully configured HTTP handler
func (c *Container) HTTPHandler() http.Handler {
	return c.Router().Setup()
}
