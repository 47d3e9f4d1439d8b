package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/deafco/sonicsuite/internal/domain"
	"github.com/deafco/sonicsuite/internal/service"
	"github.com/deafco/sonicsuite/internal/store"
	"github.com/deafco/sonicsuite/pkg/httpx"
)

// TokenRefreshHandler returns a currently valid access token for the
// session user, refreshing server-side when the stored one is expired.
// A client that still holds its own refresh token can hand it over in
// the body; it is adopted into the stored record before the protocol
// runs.
type TokenRefreshHandler struct {
	Lifecycle *service.TokenLifecycleService
	Store     store.Store
}

// ServeHTTP godoc
//
//	@Summary		Refresh the access token
//	@Description	Runs the token lifecycle for the session user and returns a usable access token
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Param			request	body		web.TokenRefreshRequest	false	"optional client-held refresh token to adopt"
//	@Success		200		{object}	web.TokenResponse
//	@Failure		401		{object}	web.ErrorResponse	"reauthorization required"
//	@Failure		504		{object}	web.ErrorResponse	"provider timeout"
//	@Security		SessionAuth
//	@Router			/v1/token-refresh [post].
func (h *TokenRefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	// Body is optional; only malformed JSON is an error.
	var req TokenRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "malformed JSON body")
		return
	}

	if req.RefreshToken != "" {
		if err := h.adoptRefreshToken(ctx, userID, req.RefreshToken); err != nil {
			writeAuthError(w, err)
			return
		}
	}

	accessToken, err := h.Lifecycle.GetValidAccessToken(ctx, userID)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	record, err := h.Store.Tokens().GetTokenByUserID(ctx, userID)
	if err != nil {
		// The token itself is good even if the record read-back fails.
		httpx.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: accessToken})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(time.Until(record.ExpiresAt).Seconds()),
		Refreshless: record.Refreshless,
	})
}

// adoptRefreshToken grafts a client-held refresh token onto the stored
// record so the server-side protocol can use it from now on.
func (h *TokenRefreshHandler) adoptRefreshToken(ctx context.Context, userID, refreshToken string) error {
	record, err := h.Store.Tokens().GetTokenByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		record = domain.TokenRecord{
			UserID:    userID,
			ExpiresAt: time.Now(), // forces an immediate refresh
		}
	} else if err != nil {
		return err
	}

	record.RefreshToken = refreshToken
	record.Refreshless = false
	return h.Store.Tokens().UpsertToken(ctx, record)
}
