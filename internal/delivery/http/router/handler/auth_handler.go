// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"gatehouse/config"
	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/delivery/http/middleware"
	"gatehouse/internal/delivery/http/response"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// RefreshTokenCookie is the cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

const defaultRefreshCookieTTL = 30 * 24 * time.Hour

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

type googleTokenRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	uc           usecase.AuthUsecase
	oauthSvc     service.OAuthService
	idTokenSvc   service.OAuthAuthService
	logger       *slog.Logger
	cookieSecure bool
	cookieDomain string
	cookieMaxAge int
	successURL   string
	failureURL   string
}

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	Usecase    usecase.AuthUsecase
	OAuthSvc   service.OAuthService
	IDTokenSvc service.OAuthAuthService
	Config     *config.Config
	Logger     *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	h := &AuthHandler{
		uc:           params.Usecase,
		oauthSvc:     params.OAuthSvc,
		idTokenSvc:   params.IDTokenSvc,
		logger:       params.Logger,
		cookieMaxAge: int(defaultRefreshCookieTTL.Seconds()),
	}

	cfg := params.Config
	h.cookieSecure = cfg.SecureCookies()
	if cfg.Cookie != nil {
		h.cookieDomain = cfg.Cookie.Domain
	}
	if cfg.Auth != nil && cfg.Auth.RefreshTokenTTL > 0 {
		h.cookieMaxAge = int(cfg.Auth.RefreshTokenTTL.Seconds())
	}
	if cfg.OAuth != nil {
		h.successURL = cfg.OAuth.FrontendURL + cfg.OAuth.SuccessPath
		h.failureURL = cfg.OAuth.FrontendURL + cfg.OAuth.FailurePath
	}

	return h
}

// Register handles password account registration.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, user.Summary())
}

// Login verifies credentials, sets the refresh cookie and returns the access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.setRefreshCookie(c, output.RefreshToken)

	return response.Success(c, http.StatusOK, output.Payload())
}

// Refresh rotates the refresh cookie and returns a new access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return errors.WithStack(domainerrors.ErrRefreshTokenMissing)
	}

	output, err := h.uc.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return errors.WithStack(err)
	}

	h.setRefreshCookie(c, output.RefreshToken)

	return response.Success(c, http.StatusOK, output.Payload())
}

// Logout revokes the refresh cookie if present and always clears it.
func (h *AuthHandler) Logout(c echo.Context) error {
	var token string
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		token = cookie.Value
	}

	if err := h.uc.Logout(c.Request().Context(), token); err != nil {
		// Logout never fails for the client; the token expires on its own.
		h.log(c).Error("Failed to revoke refresh token on logout", slog.Any("error", err))
	}

	h.clearRefreshCookie(c)

	return response.Message(c, http.StatusOK, "Logout successful")
}

// LogoutAll revokes every refresh token of the authenticated user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return errors.WithStack(domainerrors.ErrUnauthorized)
	}

	if err := h.uc.LogoutAll(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	h.clearRefreshCookie(c)

	return response.Message(c, http.StatusOK, "Logged out from all sessions")
}

// Validate returns the user behind the bearer access token.
func (h *AuthHandler) Validate(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return errors.WithStack(domainerrors.ErrUnauthorized)
	}

	user, err := h.uc.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, user.Summary())
}

// GoogleLogin redirects the browser to Google's consent page.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	authURL, err := h.oauthSvc.AuthURL(c.Response(), c.Request())
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Redirect(http.StatusFound, authURL)
}

// GoogleCallback completes the redirect flow and sends the browser back to the frontend.
// Failures redirect to the frontend failure page instead of returning an error body.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	profile, err := h.oauthSvc.CompleteAuth(c.Response(), c.Request())
	if err != nil {
		h.log(c).Warn("Google callback rejected", slog.Any("error", err))

		return c.Redirect(http.StatusFound, h.failureURL)
	}

	output, err := h.uc.OAuthLogin(ctx, profile)
	if err != nil {
		h.log(c).Warn("Google login failed", slog.Any("error", err))

		return c.Redirect(http.StatusFound, h.failureURL)
	}

	h.setRefreshCookie(c, output.RefreshToken)

	return c.Redirect(http.StatusFound, h.successURL)
}

// GoogleToken signs in with a Google ID token obtained by the client.
func (h *AuthHandler) GoogleToken(c echo.Context) error {
	var req googleTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid Google sign-in input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := h.idTokenSvc.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.OAuthLogin(c.Request().Context(), profile)
	if err != nil {
		return errors.WithStack(err)
	}

	h.setRefreshCookie(c, output.RefreshToken)

	return response.Message(c, http.StatusOK, "Google sign-in successful")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) log(c echo.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger)
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(h.refreshCookie(token, h.cookieMaxAge))
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(h.refreshCookie("", -1))
}

func (h *AuthHandler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    value,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
