package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/deafco/sonicsuite/internal/service"
	"github.com/deafco/sonicsuite/internal/spotify"
	"github.com/deafco/sonicsuite/pkg/httpx"
)

// PlaybackHandler proxies the dashboard's playback reads through the
// lifecycle manager so handlers never touch raw token state.
type PlaybackHandler struct {
	Lifecycle *service.TokenLifecycleService
	Resources *spotify.ResourceClient
	Logger    *slog.Logger
}

// HandleNowPlaying godoc
//
//	@Summary		Current playback state
//	@Description	Returns what the user is listening to right now; 204 when nothing is playing
//	@Tags			Playback
//	@Produce		json
//	@Success		200	{object}	spotify.Playback
//	@Success		204	"nothing playing"
//	@Failure		401	{object}	web.ErrorResponse
//	@Security		SessionAuth
//	@Router			/v1/playback [get].
func (h *PlaybackHandler) HandleNowPlaying(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	accessToken, err := h.Lifecycle.GetValidAccessToken(ctx, userID)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	playback, err := h.Resources.NowPlaying(ctx, accessToken)
	if err != nil {
		h.writeResourceError(w, err)
		return
	}
	if playback == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, playback)
}

// HandleDevices godoc
//
//	@Summary		Playback devices
//	@Description	Lists the user's Spotify Connect devices
//	@Tags			Playback
//	@Produce		json
//	@Success		200	{array}		spotify.Device
//	@Failure		401	{object}	web.ErrorResponse
//	@Security		SessionAuth
//	@Router			/v1/devices [get].
func (h *PlaybackHandler) HandleDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	accessToken, err := h.Lifecycle.GetValidAccessToken(ctx, userID)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	devices, err := h.Resources.Devices(ctx, accessToken)
	if err != nil {
		h.writeResourceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, devices)
}

func (h *PlaybackHandler) writeResourceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, spotify.ErrTokenRejected):
		// The lifecycle considered the token fresh but the API refused
		// it; the client's next call will trigger a refresh.
		httpx.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:            "token_rejected",
			ErrorDescription: "the provider refused the access token; retry",
		})
	case errors.Is(err, spotify.ErrUpstreamTimeout):
		httpx.WriteJSON(w, http.StatusGatewayTimeout, ErrorResponse{
			Error: "upstream_timeout",
		})
	default:
		h.Logger.Error("playback request failed", "error", err)
		httpx.WriteJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: "upstream_error",
		})
	}
}
