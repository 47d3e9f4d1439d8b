package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/deafco/sonicsuite/internal/domain"
	"github.com/deafco/sonicsuite/pkg/cryptox"
)

type tokensRepo struct {
	q querier
}

// Refresh tokens are sealed with the master key before hitting disk.
// Access tokens are short-lived so they are stored in the clear.

func (r *tokensRepo) GetTokenByUserID(ctx context.Context, userID string) (domain.TokenRecord, error) {
	var (
		t       domain.TokenRecord
		sealed  sql.NullString
		updated sql.NullTime
	)

	err := r.q.QueryRowContext(ctx, `
		SELECT user_id, access_token, refresh_token_sealed, expires_at, refreshless, created_at, updated_at
		FROM tokens WHERE user_id = ?`, userID).
		Scan(&t.UserID, &t.AccessToken, &sealed, &t.ExpiresAt, &t.Refreshless, &t.CreatedAt, &updated)
	if err != nil {
		return domain.TokenRecord{}, mapNotFound(err)
	}
	t.UpdatedAt = mapNullTime(updated)

	if sealed.Valid && sealed.String != "" {
		plaintext, err := cryptox.Open(sealed.String)
		if err != nil {
			return domain.TokenRecord{}, fmt.Errorf("unseal refresh token: %w", err)
		}
		t.RefreshToken = plaintext
	}

	return t, nil
}

func (r *tokensRepo) UpsertToken(ctx context.Context, t domain.TokenRecord) error {
	var sealed sql.NullString
	if t.RefreshToken != "" {
		value, err := cryptox.Seal(t.RefreshToken)
		if err != nil {
			return fmt.Errorf("seal refresh token: %w", err)
		}
		sealed = sql.NullString{String: value, Valid: true}
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tokens (user_id, access_token, refresh_token_sealed, expires_at, refreshless, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token_sealed = excluded.refresh_token_sealed,
			expires_at = excluded.expires_at,
			refreshless = excluded.refreshless,
			updated_at = excluded.updated_at`,
		t.UserID, t.AccessToken, sealed, t.ExpiresAt.UTC(), t.Refreshless, t.CreatedAt, now)
	return err
}

func (r *tokensRepo) DeleteToken(ctx context.Context, userID string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *tokensRepo) DeleteTokensStaleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM tokens WHERE updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
