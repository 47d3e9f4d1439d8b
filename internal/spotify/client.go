// Package spotify talks to Spotify's accounts service for the OAuth
// authorization-code flow and to the Web API for playback resources.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/deafco/sonicsuite/internal/domain"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"

	exchangeTimeout = 10 * time.Second
	refreshTimeout  = 10 * time.Second
)

// DefaultScopes are requested during authorization. Playback read and
// modify cover everything the dashboard does.
var DefaultScopes = []string{
	"user-read-email",
	"user-read-private",
	"user-read-playback-state",
	"user-read-currently-playing",
	"user-modify-playback-state",
}

var (
	// ErrGrantRejected indicates the provider refused the grant itself:
	// an expired or already-used authorization code, or a revoked refresh
	// token. Retrying with the same credentials will not help.
	ErrGrantRejected = errors.New("spotify: grant rejected")

	// ErrUpstreamTimeout indicates the accounts service did not answer in
	// time. The caller's stored tokens are still intact.
	ErrUpstreamTimeout = errors.New("spotify: upstream timeout")
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Client performs code exchange and refresh against the accounts service.
type Client struct {
	conf *oauth2.Config
	base *http.Client
}

// Option adjusts a Client, mostly for tests pointing at a local server.
type Option func(*Client)

// WithEndpoint overrides the accounts service endpoints.
func WithEndpoint(authorizeURL, exchangeURL string) Option {
	return func(c *Client) {
		c.conf.Endpoint = oauth2.Endpoint{
			AuthURL:  authorizeURL,
			TokenURL: exchangeURL,
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.base = h
	}
}

// NewClient builds a provider client for the given application credentials.
func NewClient(clientID, clientSecret, redirectURI string, opts ...Option) *Client {
	c := &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       DefaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		base: &http.Client{Timeout: exchangeTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizeURL returns the consent page URL for the given CSRF state.
func (c *Client) AuthorizeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a token grant.
func (c *Client) ExchangeCode(ctx context.Context, code string) (domain.TokenGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	tok, err := c.conf.Exchange(c.withClient(ctx), code)
	if err != nil {
		return domain.TokenGrant{}, classifyTokenError("exchange", err)
	}

	return grantFromToken(tok), nil
}

// Refresh trades a refresh token for a fresh access token. When the
// provider omits refresh_token from the response the returned grant
// carries an empty RefreshToken; the caller keeps the one it already has.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.TokenGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	// A fresh token source per call forces the refresh grant instead of
	// serving a cached access token.
	src := c.conf.TokenSource(c.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})

	tok, err := src.Token()
	if err != nil {
		return domain.TokenGrant{}, classifyTokenError("refresh", err)
	}

	grant := grantFromToken(tok)
	if tok.RefreshToken == refreshToken {
		// oauth2 copies the old refresh token forward when the response
		// omitted one. Report it as absent so callers can tell rotation
		// from reuse.
		grant.RefreshToken = ""
	}
	return grant, nil
}

func (c *Client) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.base)
}

func grantFromToken(tok *oauth2.Token) domain.TokenGrant {
	grant := domain.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scope:        scopeFromExtra(tok),
	}
	if !tok.Expiry.IsZero() {
		grant.ExpiresIn = time.Until(tok.Expiry)
	}
	return grant
}

func scopeFromExtra(tok *oauth2.Token) string {
	if s, ok := tok.Extra("scope").(string); ok {
		return s
	}
	return ""
}

// classifyTokenError maps oauth2 transport errors onto the package
// sentinels so callers can switch on errors.Is.
func classifyTokenError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		var body errorResponse
		if jsonErr := json.Unmarshal(retrieveErr.Body, &body); jsonErr == nil {
			switch body.Error {
			case "invalid_grant", "invalid_token":
				return fmt.Errorf("%s: %s: %w", op, body.ErrorDescription, ErrGrantRejected)
			}
		}
		if retrieveErr.Response != nil &&
			(retrieveErr.Response.StatusCode == http.StatusBadRequest ||
				retrieveErr.Response.StatusCode == http.StatusUnauthorized ||
				retrieveErr.Response.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%s: status %d: %w", op, retrieveErr.Response.StatusCode, ErrGrantRejected)
		}
		return fmt.Errorf("%s: status %d: %s", op, statusOf(retrieveErr), string(retrieveErr.Body))
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrUpstreamTimeout)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func statusOf(e *oauth2.RetrieveError) int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}
