package spotify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deafco/sonicsuite/internal/spotify"
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) *spotify.ResourceClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return spotify.NewResourceClient(
		spotify.WithResourceBaseURL(srv.URL),
		spotify.WithResourceHTTPClient(srv.Client()),
	)
}

func TestNowPlaying(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/player/currently-playing", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"is_playing": true,
			"progress_ms": 42000,
			"item": {
				"id": "track-1",
				"name": "Song",
				"artists": [{"name": "Band"}],
				"album": {"name": "Album", "images": [{"url": "https://img", "width": 300, "height": 300}]},
				"duration_ms": 180000
			}
		}`))
	})

	playback, err := client.NowPlaying(context.Background(), "token-1")
	require.NoError(t, err)
	require.NotNil(t, playback)
	require.True(t, playback.IsPlaying)
	require.Equal(t, "Song", playback.Item.Name)
	require.Equal(t, "Band", playback.Item.Artists[0].Name)
}

func TestNowPlayingNothingPlaying(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	playback, err := client.NowPlaying(context.Background(), "token-1")
	require.NoError(t, err)
	require.Nil(t, playback)
}

func TestNowPlayingTokenRejected(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.NowPlaying(context.Background(), "stale")
	require.ErrorIs(t, err, spotify.ErrTokenRejected)
}

func TestDevices(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/player/devices", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"devices": [
			{"id": "d1", "name": "Kitchen", "type": "Speaker", "is_active": true, "volume_percent": 60},
			{"id": "d2", "name": "Laptop", "type": "Computer", "is_active": false, "volume_percent": 100}
		]}`))
	})

	devices, err := client.Devices(context.Background(), "token-1")
	require.NoError(t, err)
	require.Len(t, devices, 2)
	require.Equal(t, "Kitchen", devices[0].Name)
	require.True(t, devices[0].IsActive)
}

func TestMe(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "spotify-user", "email": "user@example.com", "display_name": "User", "product": "premium"}`))
	})

	profile, err := client.Me(context.Background(), "token-1")
	require.NoError(t, err)
	require.Equal(t, "spotify-user", profile.ID)
	require.Equal(t, "premium", profile.Product)
}
