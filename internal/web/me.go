package web

import (
	"errors"
	"net/http"

	"github.com/deafco/sonicsuite/internal/store"
	"github.com/deafco/sonicsuite/pkg/httpx"
)

// MeHandler returns the session user's row.
type MeHandler struct {
	Store store.Store
}

// ServeHTTP godoc
//
//	@Summary		Session user
//	@Description	Returns the user record behind the current session
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	web.UserResponse
//	@Failure		401	{object}	web.ErrorResponse
//	@Security		SessionAuth
//	@Router			/v1/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpx.UserIDFromContext(r.Context())

	user, err := h.Store.Users().GetUserByID(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		httpx.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:       "not_authorized",
			Reauthorize: true,
		})
		return
	}
	if err != nil {
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
}
