package middleware

import (
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	pkgerrors "aura-backend/pkg/errors"
	"aura-backend/pkg/ratelimit"
)

// RateLimit rejects clients that exceed the limiter's budget with 429. It
// keys on RemoteAddr, so it must run after chi's RealIP middleware.
func RateLimit(limiter *ratelimit.SlidingWindowLimiter, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			allowed, err := limiter.Allow(r.Context(), "ip:"+ip)
			if err != nil {
				// Client went away
				logger.Debug("Rate limiter check aborted", zap.Error(err))
				return
			}
			if !allowed {
				errorHandler.Handle(w, r, pkgerrors.NewRateLimitError(limiter.Limit(), windowLabel(limiter.Window())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func windowLabel(d time.Duration) string {
	switch d {
	case time.Second:
		return "second"
	case time.Minute:
		return "minute"
	case time.Hour:
		return "hour"
	}
	return d.String()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
