package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/deafco/sonicsuite/internal/domain"
	"github.com/deafco/sonicsuite/internal/service"
	"github.com/deafco/sonicsuite/pkg/httpx"
)

// SaveTokensHandler persists a grant the browser obtained through the
// implicit flow. Without a refresh token the record runs in refreshless
// degraded mode and expiry forces re-authorization.
type SaveTokensHandler struct {
	Lifecycle *service.TokenLifecycleService
}

// ServeHTTP godoc
//
//	@Summary		Save externally obtained tokens
//	@Description	Stores an implicit-flow (fragment-delivered) grant against the session user
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Param			request	body		web.SaveTokensRequest	true	"grant to persist"
//	@Success		200		{object}	web.TokenResponse
//	@Failure		400		{object}	web.ErrorResponse
//	@Failure		500		{object}	web.ErrorResponse	"persistence failed"
//	@Security		SessionAuth
//	@Router			/v1/save-tokens [post].
func (h *SaveTokensHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpx.UserIDFromContext(r.Context())

	var req SaveTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	if req.AccessToken == "" {
		writeBadRequest(w, "access_token is required")
		return
	}
	if req.ExpiresIn <= 0 {
		writeBadRequest(w, "expires_in must be positive")
		return
	}

	record, err := h.Lifecycle.StoreExternalGrant(r.Context(), userID, domain.TokenGrant{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresIn:    time.Duration(req.ExpiresIn) * time.Second,
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: record.AccessToken,
		ExpiresIn:   int(time.Until(record.ExpiresAt).Seconds()),
		Refreshless: record.Refreshless,
	})
}
