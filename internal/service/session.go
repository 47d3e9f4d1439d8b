package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL keeps sessions alive long enough for a listening
// session without outliving the refresh token's usefulness.
const DefaultSessionTTL = 24 * time.Hour

// ErrSessionInvalid covers expired, malformed and mis-signed session
// tokens alike.
var ErrSessionInvalid = errors.New("service: session invalid")

// SessionService mints and verifies the signed session tokens the web
// layer hands out after a completed authorization.
type SessionService struct {
	Secret []byte
	Issuer string

	// TTL is the session lifetime; zero means DefaultSessionTTL.
	TTL time.Duration

	// Now is the clock, swappable in tests. Nil means time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultSessionTTL
}

// MintSession issues a signed session token for the user.
func (s *SessionService) MintSession(userID string) (string, error) {
	if len(s.Secret) == 0 {
		return "", fmt.Errorf("session secret not set: %w", ErrConfiguration)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl())),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// VerifySession validates a session token and returns the user id it was
// minted for. Satisfies httpx.SessionVerifier.
func (s *SessionService) VerifySession(tokenString string) (string, error) {
	if len(s.Secret) == 0 {
		return "", fmt.Errorf("session secret not set: %w", ErrConfiguration)
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return s.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrSessionInvalid)
	}

	return claims.Subject, nil
}
