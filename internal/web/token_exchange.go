package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/deafco/sonicsuite/internal/service"
	"github.com/deafco/sonicsuite/pkg/httpx"
)

// TokenExchangeHandler redeems an authorization code for the session
// user via the lifecycle manager.
type TokenExchangeHandler struct {
	Lifecycle *service.TokenLifecycleService
}

// ServeHTTP godoc
//
//	@Summary		Redeem an authorization code
//	@Description	Exchanges a single-use authorization code for tokens and persists them against the session user
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Param			request	body		web.TokenExchangeRequest	true	"authorization code"
//	@Success		200		{object}	web.TokenResponse
//	@Failure		400		{object}	web.ErrorResponse	"invalid, expired or already-redeemed code"
//	@Failure		401		{object}	web.ErrorResponse
//	@Security		SessionAuth
//	@Router			/v1/token-exchange [post].
func (h *TokenExchangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpx.UserIDFromContext(r.Context())

	var req TokenExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}
	if req.Code == "" {
		writeBadRequest(w, "code is required")
		return
	}
	if req.UserID != "" && req.UserID != userID {
		writeBadRequest(w, "user_id does not match the session")
		return
	}

	record, err := h.Lifecycle.CompleteAuthorization(r.Context(), userID, req.Code)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		ExpiresIn:    int(time.Until(record.ExpiresAt).Seconds()),
		Refreshless:  record.Refreshless,
	})
}
