// Package context carries the request id and the request-scoped logger between echo
// handlers and the context.Context handed to use cases.
package context

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderXRequestID is read from incoming requests and echoed on every response.
const HeaderXRequestID = echo.HeaderXRequestID

const echoRequestIDKey = "request_id"

type scopeKey struct{}

// scope is stored by value; every With* call copies it so parent contexts stay untouched.
type scope struct {
	requestID string
	logger    *slog.Logger
}

func scopeFrom(ctx context.Context) scope {
	if s, ok := ctx.Value(scopeKey{}).(scope); ok {
		return s
	}

	return scope{}
}

// NewRequestScope returns ctx carrying both the request id and its logger.
func NewRequestScope(ctx context.Context, requestID string, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope{requestID: requestID, logger: logger})
}

// WithRequestID returns a copy of ctx with the request id replaced.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	s := scopeFrom(ctx)
	s.requestID = requestID

	return context.WithValue(ctx, scopeKey{}, s)
}

// WithLogger returns a copy of ctx with the request logger replaced.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	s := scopeFrom(ctx)
	s.logger = logger

	return context.WithValue(ctx, scopeKey{}, s)
}

// GetRequestIDFromContext returns the request id, or "" outside a request.
func GetRequestIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}

// GetLogger returns the request logger, or nil outside a request.
func GetLogger(ctx context.Context) *slog.Logger {
	return scopeFrom(ctx).logger
}

// GetLoggerOrDefault returns the request logger, falling back to the given one.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := GetLogger(ctx); logger != nil {
		return logger
	}

	return fallback
}

// SetRequestID stores the request id on the echo context for response writers.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(echoRequestIDKey, requestID)
}

// GetRequestID returns the id set by the request id middleware. Requests that bypassed
// it (early echo errors) fall back to the response header and then to a fresh UUID.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(echoRequestIDKey).(string); ok && id != "" {
		return id
	}
	if id := c.Response().Header().Get(HeaderXRequestID); id != "" {
		return id
	}

	return uuid.NewString()
}
