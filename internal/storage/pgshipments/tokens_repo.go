package pgshipments

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"shipdesk/internal/models"
)

func (s *Storage) InsertRefreshToken(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at)
VALUES ($1,$2,$3,now())
`, userID, tokenHash, expiresAt.UTC())
	return errors.Wrap(err, "insert refresh token")
}

// GetRefreshTokenByHash returns (nil, nil) when the token is unknown.
func (s *Storage) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := s.db.QueryRow(ctx, `
SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
FROM refresh_tokens
WHERE token_hash = $1
`, tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select refresh token")
	}
	return &t, nil
}

func (s *Storage) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.db.Exec(ctx, `
UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL
`, tokenHash)
	return errors.Wrap(err, "revoke refresh token")
}

// RotateRefreshToken revokes the old token and inserts its replacement
// atomically, so a crash can not leave both usable.
func (s *Storage) RotateRefreshToken(ctx context.Context, oldHash, newHash string, userID uint64, expiresAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL
`, oldHash); err != nil {
		return errors.Wrap(err, "revoke old token")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at)
VALUES ($1,$2,$3,now())
`, userID, newHash, expiresAt.UTC()); err != nil {
		return errors.Wrap(err, "insert new token")
	}

	return errors.Wrap(tx.Commit(ctx), "commit tx")
}
