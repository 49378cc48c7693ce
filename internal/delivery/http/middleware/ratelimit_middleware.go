package middleware

import (
	"log/slog"

	deliverycontext "gatehouse/internal/delivery/context"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// RateLimitMiddleware throttles requests per client IP.
type RateLimitMiddleware struct {
	store  service.RateLimitStore
	logger *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(store service.RateLimitStore, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{store: store, logger: logger}
}

// Limit rejects the request with 429 once the caller's bucket is empty.
func (m *RateLimitMiddleware) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Path() + "|" + c.RealIP()
		if !m.store.Allow(key) {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Warn("Rate limit exceeded", slog.String("remote_ip", c.RealIP()), slog.String("path", c.Path()))

			return errors.WithStack(domainerrors.ErrTooManyRequests)
		}

		return next(c)
	}
}
