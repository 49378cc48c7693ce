package impl

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenStore_IssueRevokesPreviousTokens(t *testing.T) {
	f := newAuthFixture()
	user := f.seedPasswordUser("ada@example.com", "pw")
	ctx := context.Background()

	first, err := f.tokenStore.Issue(ctx, user.ID)
	require.NoError(t, err)
	second, err := f.tokenStore.Issue(ctx, user.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	active := f.store.activeTokens(user.ID, time.Now())
	require.Len(t, active, 1)
	assert.Equal(t, second, active[0].Token)
	assert.True(t, f.store.tokenByValue(first).IsRevoked)
}

func TestRefreshTokenStore_IssueUnknownUser(t *testing.T) {
	f := newAuthFixture()

	_, err := f.tokenStore.Issue(context.Background(), 42)

	require.Error(t, err)
	assert.Empty(t, f.store.activeTokens(42, time.Now()))
}

func TestRefreshTokenStore_IssueTransactionFailure(t *testing.T) {
	f := newAuthFixture()
	user := f.seedPasswordUser("ada@example.com", "pw")
	f.tokenStore.txManager = &fakeTxManager{store: f.store, err: errors.New("connection reset")}

	token, err := f.tokenStore.Issue(context.Background(), user.ID)

	require.Error(t, err)
	assert.Empty(t, token)
}

func TestRefreshTokenStore_ConcurrentIssueLeavesOneActiveToken(t *testing.T) {
	f := newAuthFixture()
	user := f.seedPasswordUser("ada@example.com", "pw")

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := f.tokenStore.Issue(context.Background(), user.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.store.activeTokens(user.ID, time.Now()), 1)
}

func TestRefreshTokenStore_Validate(t *testing.T) {
	f := newAuthFixture()
	user := f.seedPasswordUser("ada@example.com", "pw")
	ctx := context.Background()

	token, err := f.tokenStore.Issue(ctx, user.ID)
	require.NoError(t, err)

	got, err := f.tokenStore.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestRefreshTokenStore_ValidateFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("bad signature", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.tokenStore.Validate(ctx, "garbage")

		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
	})

	t.Run("access token presented as refresh token", func(t *testing.T) {
		f := newAuthFixture()
		user := f.seedPasswordUser("ada@example.com", "pw")
		access, err := f.tokenService.IssueAccessToken(user)
		require.NoError(t, err)

		_, err = f.tokenStore.Validate(ctx, access.Token)

		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
	})

	t.Run("signed but never stored", func(t *testing.T) {
		f := newAuthFixture()
		user := f.seedPasswordUser("ada@example.com", "pw")
		signed, _, err := f.tokenService.IssueRefreshToken(user.ID)
		require.NoError(t, err)

		_, err = f.tokenStore.Validate(ctx, signed)

		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenNotFound)
	})

	t.Run("revoked", func(t *testing.T) {
		f := newAuthFixture()
		user := f.seedPasswordUser("ada@example.com", "pw")
		token, err := f.tokenStore.Issue(ctx, user.ID)
		require.NoError(t, err)
		require.NoError(t, f.tokenStore.Revoke(ctx, token))

		_, err = f.tokenStore.Validate(ctx, token)

		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenNotFound)
	})

	t.Run("expired row is revoked", func(t *testing.T) {
		f := newAuthFixture()
		user := f.seedPasswordUser("ada@example.com", "pw")
		token, err := f.tokenStore.Issue(ctx, user.ID)
		require.NoError(t, err)
		f.tokenStore.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

		_, err = f.tokenStore.Validate(ctx, token)

		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenExpired)
		assert.True(t, f.store.tokenByValue(token).IsRevoked)
	})

	t.Run("expired signature revokes the row", func(t *testing.T) {
		f := newAuthFixture()
		user := f.seedPasswordUser("ada@example.com", "pw")
		token, err := f.tokenStore.Issue(ctx, user.ID)
		require.NoError(t, err)
		f.tokenService.expire(token)

		_, err = f.tokenStore.Validate(ctx, token)
		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenExpired)
		assert.True(t, f.store.tokenByValue(token).IsRevoked)

		_, err = f.tokenStore.Validate(ctx, token)
		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenExpired)
	})

	t.Run("owner deleted", func(t *testing.T) {
		f := newAuthFixture()
		user := f.seedPasswordUser("ada@example.com", "pw")
		token, err := f.tokenStore.Issue(ctx, user.ID)
		require.NoError(t, err)
		delete(f.store.users, user.ID)

		_, err = f.tokenStore.Validate(ctx, token)

		assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenNotFound)
	})
}

func TestRefreshTokenStore_RevokeIsIdempotent(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, f.tokenStore.Revoke(ctx, "refresh.1.99"))
	require.NoError(t, f.tokenStore.Revoke(ctx, "refresh.1.99"))
}

func TestRefreshTokenStore_RevokeAll(t *testing.T) {
	f := newAuthFixture()
	user := f.seedPasswordUser("ada@example.com", "pw")
	ctx := context.Background()

	_, err := f.tokenStore.Issue(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, f.tokenStore.RevokeAll(ctx, user.ID))
	assert.Empty(t, f.store.activeTokens(user.ID, time.Now()))
}

func TestRefreshTokenStore_SweepExpired(t *testing.T) {
	f := newAuthFixture()
	user := f.seedPasswordUser("ada@example.com", "pw")
	now := time.Now()
	f.store.tokens[1] = &entity.RefreshToken{ID: 1, Token: "refresh.1.1", UserID: user.ID, ExpiresAt: now.Add(-time.Hour), IsRevoked: true}
	f.store.tokens[2] = &entity.RefreshToken{ID: 2, Token: "refresh.1.2", UserID: user.ID, ExpiresAt: now.Add(-time.Minute)}
	f.store.tokens[3] = &entity.RefreshToken{ID: 3, Token: "refresh.1.3", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}
	f.tokenStore.now = func() time.Time { return now }

	deleted, err := f.tokenStore.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Len(t, f.store.tokens, 1)
	assert.Contains(t, f.store.tokens, int64(3))
}

func TestRefreshTokenStore_IssueChecksSingleActiveToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	user := f.seedPasswordUser("ada@example.com", "pw")

	var buf bytes.Buffer
	f.tokenStore.logger = slog.New(slog.NewJSONHandler(&buf, nil))

	_, err := f.tokenStore.Issue(ctx, user.ID)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "unexpected number of active tokens")

	// With the clock past every expiry nothing counts as active, which the check reports.
	f.tokenStore.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	_, err = f.tokenStore.Issue(ctx, user.ID)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "unexpected number of active tokens")
	assert.Contains(t, buf.String(), `"active":0`)
}
