package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/deafco/sonicsuite/internal/domain"
	"github.com/deafco/sonicsuite/internal/spotify"
	"github.com/deafco/sonicsuite/internal/store"
	"github.com/deafco/sonicsuite/pkg/cryptox"
)

// DefaultExpiryMargin is subtracted from a token's expiry when judging
// freshness, so a token never expires mid-request.
const DefaultExpiryMargin = 30 * time.Second

// IdentityProvider performs the code exchange and refresh grants against
// the music provider's accounts service.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code string) (domain.TokenGrant, error)
	Refresh(ctx context.Context, refreshToken string) (domain.TokenGrant, error)
}

// TokenLifecycleService owns the token state machine: whether a stored
// token is usable, when to refresh, and what gets persisted. It is the
// only writer of token records.
type TokenLifecycleService struct {
	Store    store.Store
	Provider IdentityProvider
	Logger   *slog.Logger

	// ExpiryMargin widens the expiry check; zero means DefaultExpiryMargin.
	ExpiryMargin time.Duration

	// Now is the clock, swappable in tests. Nil means time.Now.
	Now func() time.Time

	refreshGroup singleflight.Group
}

func (s *TokenLifecycleService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TokenLifecycleService) margin() time.Duration {
	if s.ExpiryMargin > 0 {
		return s.ExpiryMargin
	}
	return DefaultExpiryMargin
}

// CompleteAuthorization redeems a single-use authorization code for the
// user and persists the resulting token record. A code is dead after its
// first submission here, whether or not the exchange succeeded.
func (s *TokenLifecycleService) CompleteAuthorization(ctx context.Context, userID, code string) (domain.TokenRecord, error) {
	if code == "" {
		return domain.TokenRecord{}, fmt.Errorf("empty authorization code: %w", ErrExchangeFailed)
	}

	// Reserve the code in the ledger before touching the network. A
	// duplicate submission dies here without burning a provider call.
	fingerprint := cryptox.FingerprintToken(code)
	err := s.Store.ConsumedCodes().MarkCodeConsumed(ctx, domain.ConsumedCode{
		CodeHash:   fingerprint,
		UserID:     userID,
		ConsumedAt: s.now(),
	})
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.TokenRecord{}, fmt.Errorf("authorization code already redeemed: %w", ErrExchangeFailed)
	case err != nil:
		return domain.TokenRecord{}, fmt.Errorf("consumed-code ledger: %v: %w", err, ErrStoreWriteFailed)
	}

	grant, err := s.Provider.ExchangeCode(ctx, code)
	if err != nil {
		return domain.TokenRecord{}, classifyProviderError("exchange", err, ErrExchangeFailed)
	}

	record := s.recordFromGrant(userID, grant, "")

	if err := s.Store.Tokens().UpsertToken(ctx, record); err != nil {
		// The exchange already succeeded; the caller gets the token and
		// the write failure is observable in the logs.
		s.Logger.Warn("token persist failed after exchange",
			"user_id", userID,
			"error", err,
		)
	}

	s.Logger.Info("authorization completed",
		"user_id", userID,
		"refreshless", record.Refreshless,
		"expires_at", record.ExpiresAt,
	)
	return record, nil
}

// StoreExternalGrant persists a grant the user obtained outside the
// code flow, such as the implicit flow's fragment-delivered tokens.
// Grants without a refresh token run in refreshless degraded mode.
func (s *TokenLifecycleService) StoreExternalGrant(ctx context.Context, userID string, grant domain.TokenGrant) (domain.TokenRecord, error) {
	if grant.AccessToken == "" {
		return domain.TokenRecord{}, fmt.Errorf("empty access token: %w", ErrExchangeFailed)
	}

	record := s.recordFromGrant(userID, grant, "")

	if err := s.Store.Tokens().UpsertToken(ctx, record); err != nil {
		// Unlike refresh, persisting IS the point of this call.
		return domain.TokenRecord{}, fmt.Errorf("persist external grant: %v: %w", err, ErrStoreWriteFailed)
	}

	s.Logger.Info("external grant stored",
		"user_id", userID,
		"refreshless", record.Refreshless,
	)
	return record, nil
}

// GetValidAccessToken returns a usable access token for the user,
// refreshing first when the stored one is expired or about to expire.
// A fresh stored token is returned without any network call.
func (s *TokenLifecycleService) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	record, err := s.Store.Tokens().GetTokenByUserID(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", ErrNotAuthorized
	case err != nil:
		return "", fmt.Errorf("read token record: %w", err)
	}

	if !record.ExpiresWithin(s.now(), s.margin()) {
		return record.AccessToken, nil
	}

	if record.Refreshless || record.RefreshToken == "" {
		return "", fmt.Errorf("expired token with no refresh credential: %w", ErrReauthorizationRequired)
	}

	// At most one in-flight refresh per user. Concurrent callers share
	// the outcome instead of racing the same refresh token.
	v, err, _ := s.refreshGroup.Do(userID, func() (any, error) {
		return s.refresh(ctx, userID)
	})
	if err != nil {
		return "", err
	}

	return v.(domain.TokenRecord).AccessToken, nil
}

// refresh runs inside the singleflight group. It re-reads the record so
// a caller that queued behind a completed refresh reuses its result.
func (s *TokenLifecycleService) refresh(ctx context.Context, userID string) (domain.TokenRecord, error) {
	// The refresh outcome is shared and worth persisting even if the
	// triggering request goes away mid-flight.
	ctx = context.WithoutCancel(ctx)

	record, err := s.Store.Tokens().GetTokenByUserID(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.TokenRecord{}, ErrNotAuthorized
	case err != nil:
		return domain.TokenRecord{}, fmt.Errorf("read token record: %w", err)
	}

	if !record.ExpiresWithin(s.now(), s.margin()) {
		// Someone else refreshed while we queued.
		return record, nil
	}

	grant, err := s.Provider.Refresh(ctx, record.RefreshToken)
	if err != nil {
		if errors.Is(err, spotify.ErrGrantRejected) {
			// The refresh token is dead. Drop the record so the user
			// lands on re-authorization instead of a retry loop.
			if delErr := s.Store.Tokens().DeleteToken(ctx, userID); delErr != nil && !errors.Is(delErr, store.ErrNotFound) {
				s.Logger.Warn("failed to drop revoked token record", "user_id", userID, "error", delErr)
			}
		}
		return domain.TokenRecord{}, classifyProviderError("refresh", err, ErrRefreshFailed)
	}

	refreshed := s.recordFromGrant(userID, grant, record.RefreshToken)
	refreshed.CreatedAt = record.CreatedAt

	if err := s.Store.Tokens().UpsertToken(ctx, refreshed); err != nil {
		// Downgraded to a warning: the caller still gets the new token,
		// the next expiry simply triggers another refresh.
		s.Logger.Warn("token persist failed after refresh",
			"user_id", userID,
			"error", err,
		)
	}

	s.Logger.Info("access token refreshed",
		"user_id", userID,
		"rotated", grant.RefreshToken != "",
		"expires_at", refreshed.ExpiresAt,
	)
	return refreshed, nil
}

// recordFromGrant builds the stored record, keeping priorRefreshToken
// when the provider omitted refresh_token from its response.
func (s *TokenLifecycleService) recordFromGrant(userID string, grant domain.TokenGrant, priorRefreshToken string) domain.TokenRecord {
	refreshToken := grant.RefreshToken
	if refreshToken == "" {
		refreshToken = priorRefreshToken
	}

	now := s.now()
	return domain.TokenRecord{
		UserID:       userID,
		AccessToken:  grant.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(grant.ExpiresIn),
		Refreshless:  refreshToken == "",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func classifyProviderError(op string, err error, fallback error) error {
	if errors.Is(err, spotify.ErrUpstreamTimeout) {
		return fmt.Errorf("%s: %w: %w", op, ErrUpstreamTimeout, fallback)
	}
	return fmt.Errorf("%s: %v: %w", op, err, fallback)
}
