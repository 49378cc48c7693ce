// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// credentialVerifier implements the CredentialVerifier interface.
type credentialVerifier struct {
	userRepo repository.UserRepository
	hasher   service.PasswordHasher
	logger   *slog.Logger
}

// CredentialVerifierParams holds dependencies for the credential verifier, injected by Fx.
type CredentialVerifierParams struct {
	fx.In

	UserRepo repository.UserRepository
	Hasher   service.PasswordHasher
	Logger   *slog.Logger
}

// NewCredentialVerifier is the constructor for credentialVerifier.
func NewCredentialVerifier(params CredentialVerifierParams) usecase.CredentialVerifier {
	return &credentialVerifier{
		userRepo: params.UserRepo,
		hasher:   params.Hasher,
		logger:   params.Logger,
	}
}

func (v *credentialVerifier) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, v.logger)
}

// ValidateCredentials returns the user owning email when password matches.
// Unknown email, OAuth-only account and wrong password all fail with the same error.
// Inactive accounts fail before the hash is compared.
func (v *credentialVerifier) ValidateCredentials(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := v.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			v.log(ctx).Warn("Credential check failed", slog.String("reason", "unknown_email"))

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "user not found")
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	if !user.IsActive {
		v.log(ctx).Warn("Credential check failed", slog.String("reason", "inactive"), slog.Int64("userID", user.ID))

		return nil, errors.Wrap(domainerrors.ErrAccountInactive, "account inactive")
	}

	if !user.HasPassword() {
		v.log(ctx).Warn("Credential check failed", slog.String("reason", "no_password"), slog.Int64("userID", user.ID))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "account has no password")
	}

	if !v.hasher.Check(password, *user.HashedPassword) {
		v.log(ctx).Warn("Credential check failed", slog.String("reason", "password_mismatch"), slog.Int64("userID", user.ID))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "password mismatch")
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
