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

// oauthIdentityResolver implements the OAuthIdentityResolver interface.
type oauthIdentityResolver struct {
	userRepo  repository.UserRepository
	publisher service.EventPublisher
	logger    *slog.Logger
}

// OAuthIdentityResolverParams holds dependencies for the resolver, injected by Fx.
type OAuthIdentityResolverParams struct {
	fx.In

	UserRepo  repository.UserRepository
	Publisher service.EventPublisher
	Logger    *slog.Logger
}

// NewOAuthIdentityResolver is the constructor for oauthIdentityResolver.
func NewOAuthIdentityResolver(params OAuthIdentityResolverParams) usecase.OAuthIdentityResolver {
	return &oauthIdentityResolver{
		userRepo:  params.UserRepo,
		publisher: params.Publisher,
		logger:    params.Logger,
	}
}

func (r *oauthIdentityResolver) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, r.logger)
}

// ResolveOrCreate returns the user registered under the profile email, creating an OAuth-only
// account when none exists. Existing users are returned unchanged.
func (r *oauthIdentityResolver) ResolveOrCreate(ctx context.Context, profile *entity.OAuthProfile) (*entity.User, error) {
	if profile == nil || normalizeEmail(profile.Email) == "" {
		return nil, errors.Wrap(domainerrors.ErrOAuthFailed, "profile has no email")
	}
	email := normalizeEmail(profile.Email)

	existing, err := r.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	newUser := &entity.User{
		Email:      email,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		PictureURL: profile.PictureURL,
		IsOAuth:    true,
		IsActive:   true,
	}

	if err := r.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			r.log(ctx).Warn("Concurrent OAuth user creation", slog.String("email", email))

			return nil, errors.Wrap(domainerrors.ErrUserAlreadyExists, err.Error())
		}
		r.log(ctx).Error("Failed to create OAuth user", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrUserCreationFailed, err.Error())
	}

	if newUser.ID == 0 {
		return nil, errors.Wrap(domainerrors.ErrUserCreationFailed, "persistence returned no id")
	}

	r.log(ctx).Info("Created OAuth user",
		slog.Int64("userID", newUser.ID),
		slog.String("provider", profile.Provider.String()),
	)
	publishAuthEvent(ctx, r.publisher, r.log(ctx), &service.AuthEvent{
		Type:     service.AuthEventUserCreated,
		UserID:   newUser.ID,
		Email:    newUser.Email,
		Provider: profile.Provider.String(),
	})

	return newUser, nil
}
