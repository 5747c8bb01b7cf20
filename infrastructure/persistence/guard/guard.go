// Package guard wraps storage adapters with a per-call deadline and a circuit
// breaker so a slow or failing backend surfaces as a typed infrastructure
// error instead of hanging requests.
package guard

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	pkgerrors "aura-backend/pkg/errors"
)

// Config holds configuration for the storage guard
type Config struct {
	Name        string
	Timeout     time.Duration
	MaxRequests uint32
	Interval    time.Duration
	OpenTimeout time.Duration
	// FailureThreshold is the failure ratio that trips the breaker
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns a default guard configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		Timeout:          3 * time.Second,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		OpenTimeout:      15 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      10,
	}
}

// Guard bounds and counts storage calls
type Guard struct {
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a guard from config
func New(cfg Config, logger *zap.Logger) *Guard {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Storage circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Domain outcomes such as NotFound are answers, not backend failures
		IsSuccessful: func(err error) bool {
			return err == nil || (pkgerrors.IsAppError(err) && !pkgerrors.IsInfrastructure(err))
		},
	})

	return &Guard{cb: cb, timeout: cfg.Timeout, logger: logger}
}

// State returns the breaker state
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}

// Check reports the backend as unavailable while the breaker is open
func (g *Guard) Check(ctx context.Context) error {
	if g.cb.State() == gobreaker.StateOpen {
		return pkgerrors.NewUnavailableError("storage")
	}
	return ctx.Err()
}

func do[T any](ctx context.Context, g *Guard, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	result, err := g.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	if err != nil {
		return zero, g.classify(operation, err)
	}
	return result.(T), nil
}

func (g *Guard) classify(operation string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		g.logger.Warn("Storage call rejected by circuit breaker",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return pkgerrors.NewUnavailableError("storage").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		// The mutation may or may not have applied
		return pkgerrors.NewDatabaseError(operation, err)
	default:
		return err
	}
}
