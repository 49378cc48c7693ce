package impl

import (
	"context"
	"log/slog"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	verifier     usecase.CredentialVerifier
	tokenStore   usecase.RefreshTokenStore
	resolver     usecase.OAuthIdentityResolver
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	publisher    service.EventPublisher
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Verifier     usecase.CredentialVerifier
	TokenStore   usecase.RefreshTokenStore
	Resolver     usecase.OAuthIdentityResolver
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Publisher    service.EventPublisher
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		verifier:     params.Verifier,
		tokenStore:   params.TokenStore,
		resolver:     params.Resolver,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		publisher:    params.Publisher,
		logger:       params.Logger,
	}
}

func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a password account.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*entity.User, error) {
	email := normalizeEmail(input.Email)

	_, err := srv.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, errors.Wrap(domainerrors.ErrUserAlreadyExists, "email taken")
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to check existing user")
	}

	hashed, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	newUser := &entity.User{
		Email:          email,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		HashedPassword: &hashed,
		IsActive:       true,
	}

	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, errors.Wrap(domainerrors.ErrUserAlreadyExists, err.Error())
		}
		srv.log(ctx).Error("Failed to create user", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrUserCreationFailed, err.Error())
	}

	srv.log(ctx).Info("User registered", slog.Int64("userID", newUser.ID))
	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), &service.AuthEvent{
		Type:   service.AuthEventUserCreated,
		UserID: newUser.ID,
		Email:  newUser.Email,
	})

	return newUser, nil
}

// Login verifies the credentials and hands out an access token plus a rotated refresh token.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.verifier.ValidateCredentials(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	output, err := srv.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User logged in", slog.Int64("userID", user.ID))
	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), &service.AuthEvent{
		Type:   service.AuthEventLogin,
		UserID: user.ID,
		Email:  user.Email,
	})

	return output, nil
}

// OAuthLogin resolves the federated profile and issues only a refresh token.
func (srv *authService) OAuthLogin(ctx context.Context, profile *entity.OAuthProfile) (*usecase.OAuthLoginOutput, error) {
	user, err := srv.resolver.ResolveOrCreate(ctx, profile)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		srv.log(ctx).Warn("OAuth login rejected", slog.String("reason", "inactive"), slog.Int64("userID", user.ID))

		return nil, errors.Wrap(domainerrors.ErrAccountInactive, "account inactive")
	}

	refreshToken, err := srv.tokenStore.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User logged in via OAuth",
		slog.Int64("userID", user.ID),
		slog.String("provider", profile.Provider.String()),
	)
	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), &service.AuthEvent{
		Type:     service.AuthEventOAuthLogin,
		UserID:   user.ID,
		Email:    user.Email,
		Provider: profile.Provider.String(),
	})

	return &usecase.OAuthLoginOutput{
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token and a rotated refresh token.
// The presented token is revoked by the rotation.
func (srv *authService) Refresh(ctx context.Context, refreshToken string) (*usecase.LoginOutput, error) {
	if refreshToken == "" {
		return nil, errors.Wrap(domainerrors.ErrRefreshTokenMissing, "empty refresh token")
	}

	user, err := srv.tokenStore.Validate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		srv.log(ctx).Warn("Refresh rejected", slog.String("reason", "inactive"), slog.Int64("userID", user.ID))

		return nil, errors.Wrap(domainerrors.ErrAccountInactive, "account inactive")
	}

	return srv.issueTokens(ctx, user)
}

// Logout revokes the given refresh token. An empty token is a successful no-op.
func (srv *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := srv.tokenStore.Revoke(ctx, refreshToken); err != nil {
		srv.log(ctx).Error("Failed to revoke refresh token on logout", slog.Any("error", err))

		return err
	}

	return nil
}

// LogoutAll revokes every refresh token of the user.
func (srv *authService) LogoutAll(ctx context.Context, userID int64) error {
	if err := srv.tokenStore.RevokeAll(ctx, userID); err != nil {
		return err
	}

	publishAuthEvent(ctx, srv.publisher, srv.log(ctx), &service.AuthEvent{
		Type:   service.AuthEventLogoutAll,
		UserID: userID,
	})

	return nil
}

// CurrentUser loads the user behind a verified access token.
func (srv *authService) CurrentUser(ctx context.Context, userID int64) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

// SweepExpiredTokens deletes expired refresh tokens.
func (srv *authService) SweepExpiredTokens(ctx context.Context) (int64, error) {
	deleted, err := srv.tokenStore.SweepExpired(ctx)
	if err != nil {
		srv.log(ctx).Error("Refresh token sweep failed", slog.Any("error", err))

		return 0, err
	}

	srv.log(ctx).Info("Refresh token sweep finished", slog.Int64("deleted", deleted))

	return deleted, nil
}

func (srv *authService) issueTokens(ctx context.Context, user *entity.User) (*usecase.LoginOutput, error) {
	accessToken, err := srv.tokenService.IssueAccessToken(user)
	if err != nil {
		srv.log(ctx).Error("Failed to issue access token", slog.Int64("userID", user.ID), slog.Any("error", err))

		return nil, err
	}

	refreshToken, err := srv.tokenStore.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
