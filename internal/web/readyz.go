package web

import (
	"net/http"
	"time"

	"github.com/deafco/sonicsuite/internal/store"
	"github.com/deafco/sonicsuite/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Returns 200 when the database answers a ping, 503 otherwise
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	web.HealthResponse
//	@Failure		503	{object}	web.HealthResponse
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "degraded",
				Uptime:  time.Since(startTime).String(),
				Version: version,
			})
			return
		}

		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
