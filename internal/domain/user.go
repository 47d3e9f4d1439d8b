package domain

import "time"

// Role tiers mirror the product's subscription levels.
const (
	RoleFreemium = "freemium"
	RolePremium  = "premium"
)

type User struct {
	ID          string // ULID, immutable once created
	Email       string
	DisplayName string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
