package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/deafco/sonicsuite/internal/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Users() store.Users                 { return &usersRepo{q: t.tx} }
func (t *txStore) Tokens() store.Tokens               { return &tokensRepo{q: t.tx} }
func (t *txStore) ConsumedCodes() store.ConsumedCodes { return &consumedCodesRepo{q: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Nested transactions are not supported. The Tx-scoped store still
// implements store.Store so repos are interchangeable.

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, errors.New("sqlite: nested transactions are not supported")
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errors.New("sqlite: nested transactions are not supported")
}

func (t *txStore) ApplyMigrations() error {
	return errors.New("sqlite: cannot apply migrations inside a transaction")
}

func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }
