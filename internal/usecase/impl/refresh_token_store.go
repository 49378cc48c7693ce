package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// refreshTokenStore implements the RefreshTokenStore interface on top of the refresh_tokens table.
type refreshTokenStore struct {
	txManager    repository.TransactionManager
	tokenRepo    repository.RefreshTokenRepository
	userRepo     repository.UserRepository
	tokenService service.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// RefreshTokenStoreParams holds dependencies for the refresh token store, injected by Fx.
type RefreshTokenStoreParams struct {
	fx.In

	TxManager    repository.TransactionManager
	TokenRepo    repository.RefreshTokenRepository
	UserRepo     repository.UserRepository
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewRefreshTokenStore is the constructor for refreshTokenStore.
func NewRefreshTokenStore(params RefreshTokenStoreParams) usecase.RefreshTokenStore {
	return &refreshTokenStore{
		txManager:    params.TxManager,
		tokenRepo:    params.TokenRepo,
		userRepo:     params.UserRepo,
		tokenService: params.TokenService,
		logger:       params.Logger,
		now:          time.Now,
	}
}

func (s *refreshTokenStore) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

// Issue revokes every active token of the user and stores a new one, as one transaction.
// The user row lock serializes concurrent issues for the same user.
func (s *refreshTokenStore) Issue(ctx context.Context, userID int64) (string, error) {
	var issued string

	err := s.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tokenRepo := repoFactory.NewRefreshTokenRepository()

		if err := repoFactory.NewUserRepository().LockByID(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to lock user")
		}

		revoked, err := tokenRepo.RevokeAllByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to revoke previous refresh tokens")
		}

		signed, expiresAt, err := s.tokenService.IssueRefreshToken(userID)
		if err != nil {
			return errors.Wrap(err, "failed to sign refresh token")
		}

		if err := tokenRepo.Create(ctx, &entity.RefreshToken{
			Token:     signed,
			UserID:    userID,
			ExpiresAt: expiresAt,
		}); err != nil {
			return errors.Wrap(err, "failed to store refresh token")
		}

		// Still inside the lock: exactly the new row must be usable.
		active, err := tokenRepo.CountActiveByUserID(ctx, userID, s.now())
		if err != nil {
			return errors.Wrap(err, "failed to count active refresh tokens")
		}
		if active != 1 {
			s.log(ctx).Error("Refresh token rotation left an unexpected number of active tokens",
				slog.Int64("userID", userID), slog.Int64("active", active))
		}

		s.log(ctx).Debug("Refresh token rotated", slog.Int64("userID", userID), slog.Int64("revoked", revoked))
		issued = signed

		return nil
	})
	if err != nil {
		s.log(ctx).Error("Failed to issue refresh token", slog.Int64("userID", userID), slog.Any("error", err))

		return "", errors.Wrap(err, "failed to execute refresh token issue transaction")
	}

	return issued, nil
}

// Validate checks signature, persisted state and expiry, then loads the owner.
// A row found past its expiry is revoked on the way out.
func (s *refreshTokenStore) Validate(ctx context.Context, token string) (*entity.User, error) {
	claims, err := s.tokenService.ParseRefreshToken(token)
	if errors.Is(err, service.ErrTokenExpired) {
		return nil, s.rejectExpired(ctx, token, 0)
	}
	if err != nil {
		s.log(ctx).Warn("Refresh token rejected", slog.String("reason", "invalid_signature"), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, err.Error())
	}

	stored, err := s.tokenRepo.FindActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			s.log(ctx).Warn("Refresh token rejected", slog.String("reason", "not_found_or_revoked"), slog.Int64("userID", claims.Subject))

			return nil, errors.Wrap(domainerrors.ErrRefreshTokenNotFound, "no active row")
		}

		return nil, errors.Wrap(err, "failed to find refresh token")
	}

	if stored.UserID != claims.Subject {
		return nil, errors.Wrap(domainerrors.ErrRefreshTokenInvalid, "subject mismatch")
	}

	if !stored.ExpiresAt.After(s.now()) {
		return nil, s.rejectExpired(ctx, token, stored.UserID)
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrRefreshTokenNotFound, "owner no longer exists")
		}

		return nil, errors.Wrap(err, "failed to load refresh token owner")
	}

	return user, nil
}

// rejectExpired revokes the row best effort, so an expired token is never usable again
// whichever check caught it, and returns ErrRefreshTokenExpired.
func (s *refreshTokenStore) rejectExpired(ctx context.Context, token string, userID int64) error {
	if err := s.tokenRepo.RevokeByToken(ctx, token); err != nil {
		s.log(ctx).Error("Failed to revoke expired refresh token", slog.Int64("userID", userID), slog.Any("error", err))
	}
	s.log(ctx).Warn("Refresh token rejected", slog.String("reason", "expired"), slog.Int64("userID", userID))

	return errors.Wrap(domainerrors.ErrRefreshTokenExpired, "refresh token past expiry")
}

// Revoke marks the token revoked. Unknown and already revoked tokens are a no-op.
func (s *refreshTokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.tokenRepo.RevokeByToken(ctx, token); err != nil {
		return errors.Wrap(err, "failed to revoke refresh token")
	}

	return nil
}

// RevokeAll ends every session of the user.
func (s *refreshTokenStore) RevokeAll(ctx context.Context, userID int64) error {
	revoked, err := s.tokenRepo.RevokeAllByUserID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to revoke user refresh tokens")
	}

	s.log(ctx).Info("Revoked all refresh tokens", slog.Int64("userID", userID), slog.Int64("revoked", revoked))

	return nil
}

// SweepExpired deletes every row already past its expiry. It takes no locks.
func (s *refreshTokenStore) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := s.tokenRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to sweep expired refresh tokens")
	}

	return deleted, nil
}
