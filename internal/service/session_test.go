package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deafco/sonicsuite/internal/service"
)

func newSessions() *service.SessionService {
	return &service.SessionService{
		Secret: []byte("test-secret-test-secret-test-1234"),
		Issuer: "sonicsuite",
	}
}

func TestSessionRoundTrip(t *testing.T) {
	sessions := newSessions()

	token, err := sessions.MintSession("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := sessions.VerifySession(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestSessionExpired(t *testing.T) {
	sessions := newSessions()
	sessions.TTL = time.Minute

	minted := time.Now().Add(-time.Hour)
	sessions.Now = func() time.Time { return minted }

	token, err := sessions.MintSession("user-1")
	require.NoError(t, err)

	sessions.Now = nil // back to the real clock
	_, err = sessions.VerifySession(token)
	require.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestSessionWrongSecret(t *testing.T) {
	sessions := newSessions()

	token, err := sessions.MintSession("user-1")
	require.NoError(t, err)

	other := newSessions()
	other.Secret = []byte("a-completely-different-secret-00")

	_, err = other.VerifySession(token)
	require.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestSessionGarbageToken(t *testing.T) {
	sessions := newSessions()

	_, err := sessions.VerifySession("not.a.jwt")
	require.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestSessionMissingSecret(t *testing.T) {
	sessions := &service.SessionService{}

	_, err := sessions.MintSession("user-1")
	require.ErrorIs(t, err, service.ErrConfiguration)
}
