package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/deafco/sonicsuite/internal/domain"
	"github.com/deafco/sonicsuite/internal/service"
	"github.com/deafco/sonicsuite/internal/spotify"
	"github.com/deafco/sonicsuite/internal/store"
	"github.com/deafco/sonicsuite/pkg/idx"
)

// CallbackHandler finishes the authorization-code flow: state check,
// code exchange, identity reconciliation and session mint.
type CallbackHandler struct {
	Lifecycle     *service.TokenLifecycleService
	Sessions      *service.SessionService
	Resources     *spotify.ResourceClient
	Store         store.Store
	Logger        *slog.Logger
	SecureCookies bool
}

// ServeHTTP godoc
//
//	@Summary		Complete Spotify authorization
//	@Description	Validates the state cookie, redeems the authorization code, links the provider profile to a user row and sets the session cookie
//	@Tags			Auth
//	@Param			code	query	string	false	"authorization code from the provider redirect"
//	@Param			state	query	string	true	"CSRF state issued by /login"
//	@Param			error	query	string	false	"provider error, e.g. access_denied"
//	@Success		302	"redirect to /dashboard, or back to /login with an error code"
//	@Failure		400	{object}	web.ErrorResponse
//	@Router			/callback [get].
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if providerErr := r.URL.Query().Get("error"); providerErr != "" {
		h.redirectLoginError(w, r, providerErr)
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookieName)
	h.clearStateCookie(w)
	if err != nil || state == "" || cookie.Value != state {
		writeBadRequest(w, "state mismatch; restart the login flow")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeBadRequest(w, "missing authorization code")
		return
	}

	userID := h.resolveUser(r)
	provisional := userID == ""
	if provisional {
		userID = idx.New().String()
		// The token row needs a user row first. The provider profile
		// fills in the real email just below.
		err := h.Store.Users().UpsertUser(ctx, domain.User{
			ID:    userID,
			Email: "pending+" + userID + "@sonicsuite.local",
			Role:  domain.RoleFreemium,
		})
		if err != nil {
			h.Logger.Error("provisional user insert failed", "error", err)
			writeAuthError(w, err)
			return
		}
	}

	record, err := h.Lifecycle.CompleteAuthorization(ctx, userID, code)
	if err != nil {
		h.Logger.Warn("authorization exchange failed", "user_id", userID, "error", err)
		h.redirectLoginError(w, r, "exchange_failed")
		return
	}

	userID = h.linkProfile(ctx, userID, record)

	sessionToken, err := h.Sessions.MintSession(userID)
	if err != nil {
		h.Logger.Error("session mint failed", "user_id", userID, "error", err)
		writeAuthError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   int(service.DefaultSessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// resolveUser returns the user id of an existing session, or empty.
func (h *CallbackHandler) resolveUser(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	userID, err := h.Sessions.VerifySession(cookie.Value)
	if err != nil {
		return ""
	}
	return userID
}

// linkProfile fetches the provider profile and reconciles it with the
// user table. When the email already belongs to another user, the token
// record moves there and the provisional row is dropped. Best effort:
// a failed profile fetch leaves the placeholder identity in place.
func (h *CallbackHandler) linkProfile(ctx context.Context, userID string, record domain.TokenRecord) string {
	profile, err := h.Resources.Me(ctx, record.AccessToken)
	if err != nil {
		h.Logger.Warn("profile fetch failed after exchange", "user_id", userID, "error", err)
		return userID
	}

	canonicalID := userID
	if existing, err := h.Store.Users().GetUserByEmail(ctx, profile.Email); err == nil && existing.ID != userID {
		canonicalID = existing.ID

		record.UserID = canonicalID
		if err := h.Store.Tokens().UpsertToken(ctx, record); err != nil {
			h.Logger.Warn("token re-home failed", "user_id", canonicalID, "error", err)
			return userID
		}
		if err := h.Store.Users().DeleteUser(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.Logger.Warn("provisional user cleanup failed", "user_id", userID, "error", err)
		}
	}

	err = h.Store.Users().UpsertUser(ctx, domain.User{
		ID:          canonicalID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Role:        domain.RoleFreemium,
	})
	if err != nil {
		h.Logger.Warn("profile upsert failed", "user_id", canonicalID, "error", err)
	}

	return canonicalID
}

func (h *CallbackHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *CallbackHandler) redirectLoginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(code), http.StatusFound)
}
