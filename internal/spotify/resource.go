package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	apiBaseURL      = "https://api.spotify.com/v1"
	resourceTimeout = 10 * time.Second
)

// ErrTokenRejected indicates the Web API refused the access token. The
// caller should refresh and retry once before giving up.
var ErrTokenRejected = errors.New("spotify: access token rejected")

// ResourceClient reads playback state from the Spotify Web API.
type ResourceClient struct {
	baseURL string
	base    *http.Client
}

// ResourceOption adjusts a ResourceClient.
type ResourceOption func(*ResourceClient)

// WithResourceBaseURL points the client at a different API host.
func WithResourceBaseURL(u string) ResourceOption {
	return func(c *ResourceClient) { c.baseURL = u }
}

// WithResourceHTTPClient overrides the underlying HTTP client.
func WithResourceHTTPClient(h *http.Client) ResourceOption {
	return func(c *ResourceClient) { c.base = h }
}

// NewResourceClient builds a Web API client.
func NewResourceClient(opts ...ResourceOption) *ResourceClient {
	c := &ResourceClient{
		baseURL: apiBaseURL,
		base:    &http.Client{Timeout: resourceTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NowPlaying returns the current playback state, or nil when nothing is
// playing (the API answers 204 in that case).
func (c *ResourceClient) NowPlaying(ctx context.Context, accessToken string) (*Playback, error) {
	var playback Playback
	found, err := c.get(ctx, "/me/player/currently-playing", accessToken, &playback)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &playback, nil
}

// Devices lists the user's Spotify Connect devices.
func (c *ResourceClient) Devices(ctx context.Context, accessToken string) ([]Device, error) {
	var resp devicesResponse
	if _, err := c.get(ctx, "/me/player/devices", accessToken, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// Me returns the authenticated user's profile.
func (c *ResourceClient) Me(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	if _, err := c.get(ctx, "/me", accessToken, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// get issues an authenticated GET and decodes the body into out. The
// bool result is false for a 204 response.
func (c *ResourceClient) get(ctx context.Context, path, accessToken string, out any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, resourceTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.base.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, fmt.Errorf("get %s: %w", path, ErrUpstreamTimeout)
		}
		return false, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode %s: %w", path, err)
		}
		return true, nil

	case http.StatusNoContent:
		return false, nil

	case http.StatusUnauthorized:
		return false, fmt.Errorf("get %s: %w", path, ErrTokenRejected)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return false, fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode, string(body))
	}
}
