package domain

import "time"

// TokenRecord is the persisted Spotify credential pair for a single user.
// It is owned exclusively by the token lifecycle service; the store only
// reads and writes whole rows.
type TokenRecord struct {
	UserID       string
	AccessToken  string
	RefreshToken string // empty when the provider never issued one
	ExpiresAt    time.Time
	Refreshless  bool // implicit-flow grant; cannot be refreshed
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ExpiresWithin reports whether the access token is expired, or will be
// within the given margin. The margin keeps a token from expiring while an
// in-flight resource call is still using it.
func (t TokenRecord) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return !now.Add(margin).Before(t.ExpiresAt)
}

// TokenGrant is what the provider's token endpoint returns on success. It is
// validated at the boundary; ExpiresIn is always positive for a valid grant.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string // often omitted on refresh responses
	ExpiresIn    time.Duration
	Scope        string
}
