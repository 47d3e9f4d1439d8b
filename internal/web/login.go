package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/deafco/sonicsuite/internal/spotify"
)

// LoginHandler starts the authorization-code flow.
type LoginHandler struct {
	Provider      *spotify.Client
	SecureCookies bool
}

// ServeHTTP godoc
//
//	@Summary		Start Spotify authorization
//	@Description	Sets a CSRF state cookie and redirects the browser to Spotify's consent page
//	@Tags			Auth
//	@Success		302	"redirect to the provider's authorize endpoint"
//	@Router			/login [get].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.Provider.AuthorizeURL(state), http.StatusFound)
}
