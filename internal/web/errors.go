package web

import (
	"errors"
	"net/http"

	"github.com/deafco/sonicsuite/internal/service"
	"github.com/deafco/sonicsuite/pkg/httpx"
)

// writeAuthError maps the service error taxonomy onto HTTP responses.
// Anything that only a fresh authorization can fix carries the
// reauthorize hint so the UI routes back to /login.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotAuthorized):
		httpx.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:            "not_authorized",
			ErrorDescription: "no token on file for this user",
			Reauthorize:      true,
		})

	case errors.Is(err, service.ErrReauthorizationRequired):
		httpx.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:            "reauthorization_required",
			ErrorDescription: "stored credentials can no longer be refreshed",
			Reauthorize:      true,
		})

	case errors.Is(err, service.ErrUpstreamTimeout):
		httpx.WriteJSON(w, http.StatusGatewayTimeout, ErrorResponse{
			Error:            "upstream_timeout",
			ErrorDescription: "the provider did not answer in time",
		})

	case errors.Is(err, service.ErrExchangeFailed):
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:            "exchange_failed",
			ErrorDescription: err.Error(),
		})

	case errors.Is(err, service.ErrRefreshFailed):
		httpx.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:            "refresh_failed",
			ErrorDescription: "the provider rejected the refresh token",
			Reauthorize:      true,
		})

	case errors.Is(err, service.ErrStoreWriteFailed):
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:            "store_write_failed",
			ErrorDescription: "could not persist token state",
		})

	default:
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}
}

func writeBadRequest(w http.ResponseWriter, desc string) {
	httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:            "invalid_request",
		ErrorDescription: desc,
	})
}
