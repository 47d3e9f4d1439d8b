package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deafco/sonicsuite/internal/domain"
	"github.com/deafco/sonicsuite/internal/store"
	"github.com/deafco/sonicsuite/internal/store/drivers/sqlite"
	"github.com/deafco/sonicsuite/pkg/idx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s store.Store) domain.User {
	t.Helper()

	u := domain.User{
		ID:          idx.New().String(),
		Email:       "listener@example.com",
		DisplayName: "Listener",
		Role:        domain.RoleFreemium,
	}
	require.NoError(t, s.Users().UpsertUser(context.Background(), u))
	return u
}

func TestUsersUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, domain.RoleFreemium, got.Role)

	byEmail, err := s.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
}

func TestUsersUpsertPreservesRole(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s)
	require.NoError(t, s.Users().UpdateRole(ctx, u.ID, domain.RolePremium))

	// Re-authorization upserts the same user with the default role; the
	// premium upgrade must survive.
	u.DisplayName = "Listener Prime"
	require.NoError(t, s.Users().UpsertUser(ctx, u))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RolePremium, got.Role)
	require.Equal(t, "Listener Prime", got.DisplayName)
}

func TestUsersNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Users().GetUserByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Users().UpdateRole(context.Background(), "missing", domain.RolePremium)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTokensRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s)

	rec := domain.TokenRecord{
		UserID:       u.ID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-secret",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Tokens().UpsertToken(ctx, rec))

	got, err := s.Tokens().GetTokenByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "access-1", got.AccessToken)
	require.Equal(t, "refresh-secret", got.RefreshToken, "refresh token must survive seal/unseal")
	require.False(t, got.Refreshless)
	require.WithinDuration(t, rec.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestTokensRefreshless(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s)

	rec := domain.TokenRecord{
		UserID:      u.ID,
		AccessToken: "implicit-access",
		ExpiresAt:   time.Now().Add(time.Hour),
		Refreshless: true,
	}
	require.NoError(t, s.Tokens().UpsertToken(ctx, rec))

	got, err := s.Tokens().GetTokenByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.Refreshless)
	require.Empty(t, got.RefreshToken)
}

func TestTokensUpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s)

	first := domain.TokenRecord{
		UserID:       u.ID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, s.Tokens().UpsertToken(ctx, first))

	second := first
	second.AccessToken = "access-2"
	second.RefreshToken = "refresh-2"
	require.NoError(t, s.Tokens().UpsertToken(ctx, second))

	got, err := s.Tokens().GetTokenByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "access-2", got.AccessToken)
	require.Equal(t, "refresh-2", got.RefreshToken)
}

func TestTokensCascadeOnUserDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s)
	require.NoError(t, s.Tokens().UpsertToken(ctx, domain.TokenRecord{
		UserID:      u.ID,
		AccessToken: "access-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	require.NoError(t, s.Users().DeleteUser(ctx, u.ID))

	_, err := s.Tokens().GetTokenByUserID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConsumedCodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	code := domain.ConsumedCode{
		CodeHash: "fingerprint-1",
		UserID:   "user-1",
	}

	consumed, err := s.ConsumedCodes().IsCodeConsumed(ctx, code.CodeHash)
	require.NoError(t, err)
	require.False(t, consumed)

	require.NoError(t, s.ConsumedCodes().MarkCodeConsumed(ctx, code))

	consumed, err = s.ConsumedCodes().IsCodeConsumed(ctx, code.CodeHash)
	require.NoError(t, err)
	require.True(t, consumed)

	err = s.ConsumedCodes().MarkCodeConsumed(ctx, code)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestConsumedCodesPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := domain.ConsumedCode{
		CodeHash:   "old",
		UserID:     "user-1",
		ConsumedAt: time.Now().Add(-48 * time.Hour),
	}
	fresh := domain.ConsumedCode{
		CodeHash:   "fresh",
		UserID:     "user-1",
		ConsumedAt: time.Now(),
	}
	require.NoError(t, s.ConsumedCodes().MarkCodeConsumed(ctx, old))
	require.NoError(t, s.ConsumedCodes().MarkCodeConsumed(ctx, fresh))

	n, err := s.ConsumedCodes().DeleteConsumedCodesBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	consumed, err := s.ConsumedCodes().IsCodeConsumed(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, consumed)
}

func TestWithTxRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpsertUser(ctx, domain.User{
			ID:    idx.New().String(),
			Email: "rolled-back@example.com",
			Role:  domain.RoleFreemium,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByEmail(ctx, "rolled-back@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().UpsertUser(ctx, domain.User{
			ID:    idx.New().String(),
			Email: "committed@example.com",
			Role:  domain.RoleFreemium,
		})
	})
	require.NoError(t, err)

	_, err = s.Users().GetUserByEmail(ctx, "committed@example.com")
	require.NoError(t, err)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
