package domain

import "time"

// ConsumedCode records that an authorization code has already been exchanged.
// Codes are single-use: a second exchange attempt must fail without touching
// the provider, so we keep a fingerprint ledger instead of the codes themselves.
type ConsumedCode struct {
	CodeHash   string // base64url SHA-256 of the opaque code
	UserID     string
	ConsumedAt time.Time
}
