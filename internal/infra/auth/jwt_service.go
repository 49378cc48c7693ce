// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/service"
)

// ErrInvalidToken is returned for any token that fails signature, claim or type checks.
// Correctly signed tokens past their exp report service.ErrTokenExpired instead.
var ErrInvalidToken = errors.New("invalid token")

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessSecret  []byte        // Secret key for signing access tokens.
	refreshSecret []byte        // Secret key for signing refresh tokens.
	accessTTL     time.Duration // Time-to-live for access tokens.
	refreshTTL    time.Duration // Time-to-live for refresh tokens.
	now           func() time.Time
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	return newJWTService(cfg, time.Now)
}

func newJWTService(cfg *config.Config, now func() time.Time) (*jwtService, error) {
	if cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, errors.New("jwt secrets must be provided")
	}

	accessTTL, refreshTTL := time.Minute*15, time.Hour*24*30
	if cfg.Auth != nil {
		if cfg.Auth.AccessTokenTTL > 0 {
			accessTTL = cfg.Auth.AccessTokenTTL
		}
		if cfg.Auth.RefreshTokenTTL > 0 {
			refreshTTL = cfg.Auth.RefreshTokenTTL
		}
	}

	return &jwtService{
		accessSecret:  []byte(cfg.SecretKey.Access),
		refreshSecret: []byte(cfg.SecretKey.Refresh),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           now,
	}, nil
}

// IssueAccessToken signs a short-lived access token carrying the user's id and email.
func (s *jwtService) IssueAccessToken(user *entity.User) (*entity.AccessToken, error) {
	if user == nil {
		return nil, domainerrors.ErrTokenCreationFailed.WrapMessage("nil user")
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.accessTTL)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(user.ID, 10), // Subject (who the token is for)
		"username": user.Email,
		"iat":      issuedAt.Unix(),  // Issued At
		"exp":      expiresAt.Unix(), // Expiration Time
		"type":     entity.TokenTypeAccess,
	}

	signed, err := s.sign(claims, s.accessSecret)
	if err != nil {
		return nil, err
	}

	return &entity.AccessToken{
		Token:     signed,
		Claims:    entity.AccessClaims{Subject: user.ID, Username: user.Email},
		ExpiresAt: expiresAt,
	}, nil
}

// ParseAccessToken verifies an access token and returns its identity claims.
func (s *jwtService) ParseAccessToken(tokenString string) (*entity.AccessClaims, error) {
	claims, err := s.parse(tokenString, s.accessSecret, entity.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	subject, err := subjectOf(claims)
	if err != nil {
		return nil, err
	}
	username, _ := claims["username"].(string)

	return &entity.AccessClaims{Subject: subject, Username: username}, nil
}

// IssueRefreshToken signs a refresh token. The jti keeps two tokens issued within the
// same second distinct, since the signed string is the lookup key.
func (s *jwtService) IssueRefreshToken(userID int64) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.refreshTTL)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"jti":  uuid.NewString(),
		"iat":  issuedAt.Unix(),
		"exp":  expiresAt.Unix(),
		"type": entity.TokenTypeRefresh,
	}

	signed, err := s.sign(claims, s.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ParseRefreshToken verifies a refresh token and returns its subject and expiry.
func (s *jwtService) ParseRefreshToken(tokenString string) (*service.RefreshClaims, error) {
	claims, err := s.parse(tokenString, s.refreshSecret, entity.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	subject, err := subjectOf(claims)
	if err != nil {
		return nil, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.Wrap(ErrInvalidToken, "missing expiration")
	}

	return &service.RefreshClaims{Subject: subject, ExpiresAt: exp.Time}, nil
}

// RefreshTokenTTL returns the configured duration for refresh tokens.
func (s *jwtService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

func (s *jwtService) sign(claims jwt.MapClaims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", domainerrors.ErrTokenCreationFailed.WrapMessage(err.Error())
	}
	if signed == "" {
		return "", domainerrors.ErrTokenCreationFailed.WrapMessage("empty signed token")
	}

	return signed, nil
}

func (s *jwtService) parse(tokenString string, secret []byte, tokenType string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	typ, _ := claims["type"].(string)
	if err != nil {
		// jwt verifies the signature before claims, so an expiry error implies a genuine token.
		if errors.Is(err, jwt.ErrTokenExpired) && typ == tokenType {
			return nil, errors.Wrap(service.ErrTokenExpired, err.Error())
		}

		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	if typ != tokenType {
		return nil, errors.Wrapf(ErrInvalidToken, "unexpected token type %q", typ)
	}

	return claims, nil
}

func subjectOf(claims jwt.MapClaims) (int64, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errors.Wrap(ErrInvalidToken, "missing subject")
	}

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidToken, "malformed subject")
	}

	return id, nil
}
