package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "gatehouse/internal/delivery/context"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	contextKeyUserID   = "userID"
	contextKeyUsername = "username"
)

// AuthMiddleware provides middleware for JWT authentication.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, logger: logger}
}

// Authenticate validates the bearer access token and stores the caller identity on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return errors.Wrap(domainerrors.ErrUnauthorized, "authorization header is missing")
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			return errors.Wrap(domainerrors.ErrUnauthorized, "authorization header is not a bearer token")
		}

		claims, err := m.tokenSvc.ParseAccessToken(tokenString)
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Debug("Access token rejected", slog.Any("error", err))

			return errors.Wrap(domainerrors.ErrAccessTokenInvalid, err.Error())
		}

		c.Set(contextKeyUserID, claims.Subject)
		c.Set(contextKeyUsername, claims.Username)

		return next(c)
	}
}

// GetUserID returns the authenticated user id set by Authenticate.
func GetUserID(c echo.Context) (int64, bool) {
	userID, ok := c.Get(contextKeyUserID).(int64)

	return userID, ok
}

// GetUsername returns the authenticated email set by Authenticate.
func GetUsername(c echo.Context) (string, bool) {
	username, ok := c.Get(contextKeyUsername).(string)

	return username, ok
}
