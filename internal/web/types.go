package web

// TokenExchangeRequest redeems an authorization code for the session
// user.
type TokenExchangeRequest struct {
	Code   string `json:"code" example:"AQB4x1..."`
	UserID string `json:"user_id,omitempty" example:"01J8ZQ4T2N"`
}

// TokenRefreshRequest optionally hands over a client-held refresh token
// before the standard refresh protocol runs.
type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// SaveTokensRequest persists an implicit-flow grant. Tokens delivered
// via URL fragment never include a refresh token.
type SaveTokensRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
}

// TokenResponse is the token shape the UI consumes.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	Refreshless  bool   `json:"refreshless,omitempty"`
}

// UserResponse is the session user's row.
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// HealthResponse reports liveness/readiness.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// ErrorResponse is the uniform error shape.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Reauthorize      bool   `json:"reauthorize,omitempty"`
}
