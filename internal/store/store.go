package store

import (
	"context"
	"errors"
	"time"

	"github.com/deafco/sonicsuite/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement
// this. It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Users() Users
	Tokens() Tokens
	ConsumedCodes() ConsumedCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail returns a user by email, for linking provider
	// accounts back to existing users.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// UpsertUser inserts the user or refreshes email, display name and
	// updated_at on conflict. The role is only written on insert so a
	// premium upgrade survives re-authorization.
	UpsertUser(ctx context.Context, u domain.User) error

	// UpdateRole changes the user's role and bumps updated_at.
	UpdateRole(ctx context.Context, userID, role string) error

	// DeleteUser cascades to tokens (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type Tokens interface {
	// GetTokenByUserID returns the user's token record.
	GetTokenByUserID(ctx context.Context, userID string) (domain.TokenRecord, error)

	// UpsertToken inserts or replaces the user's token record. A user
	// holds at most one record at a time.
	UpsertToken(ctx context.Context, t domain.TokenRecord) error

	// DeleteToken removes the user's token record.
	DeleteToken(ctx context.Context, userID string) error

	// DeleteTokensStaleSince removes records not refreshed since the
	// cutoff. Housekeeping for abandoned refreshless grants.
	DeleteTokensStaleSince(ctx context.Context, cutoff time.Time) (int64, error)
}

type ConsumedCodes interface {
	// MarkCodeConsumed records an authorization code fingerprint as
	// spent. Returns ErrAlreadyExists when the code was seen before.
	MarkCodeConsumed(ctx context.Context, c domain.ConsumedCode) error

	// IsCodeConsumed reports whether the fingerprint is already spent.
	IsCodeConsumed(ctx context.Context, codeHash string) (bool, error)

	// DeleteConsumedCodesBefore prunes ledger entries older than the
	// cutoff. Provider codes expire upstream long before then.
	DeleteConsumedCodesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
