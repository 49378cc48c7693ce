// Package handler contains the HTTP handlers of the worker server.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"gatehouse/config"
	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// tokenValidator verifies a Google-signed OIDC token for the given audience.
type tokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// SweepResponse reports how many refresh token rows were deleted.
type SweepResponse struct {
	Deleted int64 `json:"deleted"`
}

// SweepHandler runs the expired refresh token sweep on behalf of an external scheduler.
type SweepHandler struct {
	uc       usecase.AuthUsecase
	logger   *slog.Logger
	audience string
	validate tokenValidator
}

// SweepHandlerParams holds dependencies for the SweepHandler
type SweepHandlerParams struct {
	fx.In

	Config  *config.Config
	Usecase usecase.AuthUsecase
	Logger  *slog.Logger
}

// NewSweepHandler creates a new sweep handler. Scheduler calls are OIDC-verified
// only when worker.verifyAudience is configured.
func NewSweepHandler(params SweepHandlerParams) *SweepHandler {
	var audience string
	if params.Config.Worker != nil {
		audience = params.Config.Worker.VerifyAudience
	}

	return &SweepHandler{
		uc:       params.Usecase,
		logger:   params.Logger,
		audience: audience,
		validate: idtoken.Validate,
	}
}

// HandleSweep deletes expired refresh tokens.
func (h *SweepHandler) HandleSweep(c echo.Context) error {
	ctx := c.Request().Context()
	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)

	if h.audience != "" {
		if err := h.verifySchedulerToken(c.Request()); err != nil {
			logger.Warn("[Worker] Invalid scheduler token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	deleted, err := h.uc.SweepExpiredTokens(ctx)
	if err != nil {
		logger.Error("[Worker] Refresh token sweep failed", slog.Any("error", err))

		// 503 lets the scheduler retry.
		return c.NoContent(http.StatusServiceUnavailable)
	}

	return c.JSON(http.StatusOK, SweepResponse{Deleted: deleted})
}

func (h *SweepHandler) verifySchedulerToken(req *http.Request) error {
	authHeader := req.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" {
		return errors.New("invalid authorization header format")
	}

	payload, err := h.validate(req.Context(), token, h.audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
