package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/deafco/sonicsuite/internal/domain"
	"github.com/deafco/sonicsuite/internal/store"
)

type consumedCodesRepo struct {
	q querier
}

func (r *consumedCodesRepo) MarkCodeConsumed(ctx context.Context, c domain.ConsumedCode) error {
	if c.ConsumedAt.IsZero() {
		c.ConsumedAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO consumed_codes (code_hash, user_id, consumed_at)
		VALUES (?, ?, ?)`,
		c.CodeHash, c.UserID, c.ConsumedAt.UTC())
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *consumedCodesRepo) IsCodeConsumed(ctx context.Context, codeHash string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM consumed_codes WHERE code_hash = ?`, codeHash).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *consumedCodesRepo) DeleteConsumedCodesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM consumed_codes WHERE consumed_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// isUniqueViolation sniffs the driver error text. modernc's sqlite does
// not export typed constraint errors.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
