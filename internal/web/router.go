package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/deafco/sonicsuite/internal/service"
	"github.com/deafco/sonicsuite/internal/spotify"
	"github.com/deafco/sonicsuite/internal/store"
	"github.com/deafco/sonicsuite/pkg/httpx"
	"github.com/deafco/sonicsuite/pkg/slogx"

	_ "github.com/deafco/sonicsuite/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// SessionCookieName carries the signed session token in browser flows.
const SessionCookieName = "sonicsuite_session"

// stateCookieName holds the OAuth state parameter between /login and
// /callback.
const stateCookieName = "sonicsuite_oauth_state"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	Lifecycle *service.TokenLifecycleService
	Sessions  *service.SessionService
	Provider  *spotify.Client
	Resources *spotify.ResourceClient

	// SecureCookies marks session and state cookies Secure; off for
	// local http development.
	SecureCookies bool
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTokens()
	r.registerPlayback()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
//
//	@title			SonicSuite Token Service API
//	@version		0.1.0
//	@description	Manages the Spotify OAuth token lifecycle for SonicSuite: authorization, exchange, refresh and playback proxying.
//	@description
//	@description				Sessions are signed tokens delivered as a cookie or Authorization header.
//
//	@contact.name				DeafCo Engineering
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	login := &LoginHandler{
		Provider:      r.Provider,
		SecureCookies: r.SecureCookies,
	}
	callback := &CallbackHandler{
		Lifecycle:     r.Lifecycle,
		Sessions:      r.Sessions,
		Resources:     r.Resources,
		Store:         r.store,
		Logger:        r.logger,
		SecureCookies: r.SecureCookies,
	}

	// Browser redirect endpoints. Moderate by IP: a user bouncing
	// between login attempts should not be locked out.
	r.Mux.Handle("GET /login",
		httpx.Chain(login,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /callback",
		httpx.Chain(callback,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerTokens() {
	session := httpx.SessionMiddleware(r.Sessions, SessionCookieName)

	// Token endpoints hit the provider's accounts service; strict
	// limits keep a misbehaving client from burning the app's quota.
	exchange := &TokenExchangeHandler{Lifecycle: r.Lifecycle}
	r.Mux.Handle("POST /v1/token-exchange",
		httpx.Chain(exchange,
			session,
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	refresh := &TokenRefreshHandler{Lifecycle: r.Lifecycle, Store: r.store}
	r.Mux.Handle("POST /v1/token-refresh",
		httpx.Chain(refresh,
			session,
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	save := &SaveTokensHandler{Lifecycle: r.Lifecycle}
	r.Mux.Handle("POST /v1/save-tokens",
		httpx.Chain(save,
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPlayback() {
	session := httpx.SessionMiddleware(r.Sessions, SessionCookieName)

	playback := &PlaybackHandler{
		Lifecycle: r.Lifecycle,
		Resources: r.Resources,
		Logger:    r.logger,
	}

	// The dashboard polls these; lenient by user.
	r.Mux.Handle("GET /v1/playback",
		httpx.Chain(http.HandlerFunc(playback.HandleNowPlaying),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/devices",
		httpx.Chain(http.HandlerFunc(playback.HandleDevices),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	me := &MeHandler{Store: r.store}
	r.Mux.Handle("GET /v1/me",
		httpx.Chain(me,
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
