package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"

	"github.com/pkg/errors"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// memoryStore backs the fake repositories with maps guarded by one mutex.
type memoryStore struct {
	mu         sync.Mutex
	users      map[int64]*entity.User
	tokens     map[int64]*entity.RefreshToken
	nextUserID int64
	nextToken  int64
	writes     int
	createErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:  make(map[int64]*entity.User),
		tokens: make(map[int64]*entity.RefreshToken),
	}
}

func (m *memoryStore) addUser(user *entity.User) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextUserID++
	user.ID = m.nextUserID
	m.users[user.ID] = user

	return user
}

func (m *memoryStore) activeTokens(userID int64, now time.Time) []*entity.RefreshToken {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active []*entity.RefreshToken
	for _, token := range m.tokens {
		if token.UserID == userID && token.IsUsable(now) {
			active = append(active, token)
		}
	}

	return active
}

func (m *memoryStore) tokenByValue(value string) *entity.RefreshToken {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, token := range m.tokens {
		if token.Token == value {
			return token
		}
	}

	return nil
}

func (m *memoryStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}

type fakeUserRepo struct{ store *memoryStore }

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, user := range r.store.users {
		if user.Email == email {
			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.createErr != nil {
		return r.store.createErr
	}
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return errors.Wrap(repository.ErrUserAlreadyExists, "email already exists")
		}
	}

	r.store.writes++
	r.store.nextUserID++
	user.ID = r.store.nextUserID
	user.JoinedAt = time.Now()
	r.store.users[user.ID] = user

	return nil
}

func (r *fakeUserRepo) LockByID(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[id]; !ok {
		return repository.ErrUserNotFound
	}

	return nil
}

type fakeRefreshTokenRepo struct{ store *memoryStore }

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *entity.RefreshToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.writes++
	r.store.nextToken++
	token.ID = r.store.nextToken
	token.CreatedAt = time.Now()
	stored := *token
	r.store.tokens[token.ID] = &stored

	return nil
}

func (r *fakeRefreshTokenRepo) FindActiveByToken(_ context.Context, value string) (*entity.RefreshToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, token := range r.store.tokens {
		if token.Token == value && !token.IsRevoked {
			found := *token

			return &found, nil
		}
	}

	return nil, repository.ErrRefreshTokenNotFound
}

func (r *fakeRefreshTokenRepo) RevokeByToken(_ context.Context, value string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.writes++
	for _, token := range r.store.tokens {
		if token.Token == value {
			token.IsRevoked = true
		}
	}

	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAllByUserID(_ context.Context, userID int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.writes++
	var revoked int64
	for _, token := range r.store.tokens {
		if token.UserID == userID && !token.IsRevoked {
			token.IsRevoked = true
			revoked++
		}
	}

	return revoked, nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	for id, token := range r.store.tokens {
		if token.ExpiresAt.Before(before) {
			delete(r.store.tokens, id)
			deleted++
		}
	}

	return deleted, nil
}

func (r *fakeRefreshTokenRepo) CountActiveByUserID(_ context.Context, userID int64, now time.Time) (int64, error) {
	return int64(len(r.store.activeTokens(userID, now))), nil
}

// fakeTxManager runs the unit of work against the shared store. Rollback is not simulated.
type fakeTxManager struct {
	store *memoryStore
	mu    sync.Mutex
	err   error
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.err != nil {
		return tm.err
	}

	return fn(&fakeRepoFactory{store: tm.store})
}

type fakeRepoFactory struct{ store *memoryStore }

func (f *fakeRepoFactory) NewUserRepository() repository.UserRepository {
	return &fakeUserRepo{store: f.store}
}

func (f *fakeRepoFactory) NewRefreshTokenRepository() repository.RefreshTokenRepository {
	return &fakeRefreshTokenRepo{store: f.store}
}

// fakeHasher prefixes the password instead of hashing it.
type fakeHasher struct{ err error }

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}

	return "hashed:" + password, nil
}

func (h *fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

// fakeTokenService issues readable, unique tokens of the form "<type>.<userID>.<seq>".
type fakeTokenService struct {
	mu         sync.Mutex
	seq        int
	refreshTTL time.Duration
	now        func() time.Time
	accessErr  error
	expired    map[string]bool
}

// expire makes ParseRefreshToken report the token as correctly signed but past its exp.
func (s *fakeTokenService) expire(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired == nil {
		s.expired = make(map[string]bool)
	}
	s.expired[token] = true
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{refreshTTL: 30 * 24 * time.Hour, now: time.Now}
}

func (s *fakeTokenService) next(kind string, userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++

	return fmt.Sprintf("%s.%d.%d", kind, userID, s.seq)
}

func (s *fakeTokenService) IssueAccessToken(user *entity.User) (*entity.AccessToken, error) {
	if s.accessErr != nil {
		return nil, s.accessErr
	}

	return &entity.AccessToken{
		Token:     s.next(entity.TokenTypeAccess, user.ID),
		Claims:    entity.AccessClaims{Subject: user.ID, Username: user.Email},
		ExpiresAt: s.now().Add(15 * time.Minute),
	}, nil
}

func (s *fakeTokenService) ParseAccessToken(token string) (*entity.AccessClaims, error) {
	userID, err := parseFakeToken(entity.TokenTypeAccess, token)
	if err != nil {
		return nil, err
	}

	return &entity.AccessClaims{Subject: userID}, nil
}

func (s *fakeTokenService) IssueRefreshToken(userID int64) (string, time.Time, error) {
	return s.next(entity.TokenTypeRefresh, userID), s.now().Add(s.refreshTTL), nil
}

func (s *fakeTokenService) ParseRefreshToken(token string) (*service.RefreshClaims, error) {
	s.mu.Lock()
	expired := s.expired[token]
	s.mu.Unlock()
	if expired {
		return nil, errors.Wrap(service.ErrTokenExpired, "token is expired")
	}

	userID, err := parseFakeToken(entity.TokenTypeRefresh, token)
	if err != nil {
		return nil, err
	}

	return &service.RefreshClaims{Subject: userID}, nil
}

func (s *fakeTokenService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

func parseFakeToken(kind, token string) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != kind {
		return 0, errors.New("malformed token")
	}

	return strconv.ParseInt(parts[1], 10, 64)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*service.AuthEvent
	err    error
}

func (p *recordingPublisher) PublishAuthEvent(_ context.Context, event *service.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []service.AuthEventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]service.AuthEventType, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}

	return types
}

// authFixture wires every component of the auth flows on top of the in-memory store.
type authFixture struct {
	store        *memoryStore
	tokenService *fakeTokenService
	hasher       *fakeHasher
	publisher    *recordingPublisher
	tokenStore   *refreshTokenStore
	service      *authService
}

func newAuthFixture() *authFixture {
	store := newMemoryStore()
	userRepo := &fakeUserRepo{store: store}
	tokenRepo := &fakeRefreshTokenRepo{store: store}
	tokenService := newFakeTokenService()
	hasher := &fakeHasher{}
	publisher := &recordingPublisher{}
	logger := newDiscardLogger()

	tokenStore := NewRefreshTokenStore(RefreshTokenStoreParams{
		TxManager:    &fakeTxManager{store: store},
		TokenRepo:    tokenRepo,
		UserRepo:     userRepo,
		TokenService: tokenService,
		Logger:       logger,
	}).(*refreshTokenStore)

	verifier := NewCredentialVerifier(CredentialVerifierParams{
		UserRepo: userRepo,
		Hasher:   hasher,
		Logger:   logger,
	})

	resolver := NewOAuthIdentityResolver(OAuthIdentityResolverParams{
		UserRepo:  userRepo,
		Publisher: publisher,
		Logger:    logger,
	})

	svc := NewAuthService(AuthServiceParams{
		Verifier:     verifier,
		TokenStore:   tokenStore,
		Resolver:     resolver,
		UserRepo:     userRepo,
		Hasher:       hasher,
		TokenService: tokenService,
		Publisher:    publisher,
		Logger:       logger,
	}).(*authService)

	return &authFixture{
		store:        store,
		tokenService: tokenService,
		hasher:       hasher,
		publisher:    publisher,
		tokenStore:   tokenStore,
		service:      svc,
	}
}

func (f *authFixture) seedPasswordUser(email, password string) *entity.User {
	return f.store.addUser(&entity.User{
		Email:          email,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		HashedPassword: strPtr("hashed:" + password),
		IsActive:       true,
	})
}

// appErrorCode extracts the business error code carried by err.
func appErrorCode(err error) string {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.ErrorCode()
	}

	return ""
}
