package service

import "errors"

// Auth error taxonomy. Handlers switch on these with errors.Is to pick a
// status code; the wrapped detail keeps the provider's own description
// for debugging.
var (
	// ErrConfiguration means required credentials or settings are missing.
	// Raised before any network call is attempted.
	ErrConfiguration = errors.New("service: configuration error")

	// ErrNotAuthorized means no token record exists for the user. The
	// caller must route the user through the authorization flow.
	ErrNotAuthorized = errors.New("service: not authorized")

	// ErrReauthorizationRequired means the stored token is expired and no
	// usable refresh token exists. Only a full re-authorization helps.
	ErrReauthorizationRequired = errors.New("service: reauthorization required")

	// ErrExchangeFailed means the provider rejected the authorization
	// code, or the code was already redeemed.
	ErrExchangeFailed = errors.New("service: exchange failed")

	// ErrRefreshFailed means the provider rejected or failed the refresh
	// grant. Not retried automatically.
	ErrRefreshFailed = errors.New("service: refresh failed")

	// ErrStoreWriteFailed means persistence failed where no in-memory
	// token could be returned instead.
	ErrStoreWriteFailed = errors.New("service: store write failed")

	// ErrUpstreamTimeout means a provider call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("service: upstream timeout")
)
