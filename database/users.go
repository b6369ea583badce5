package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PutUser creates the user or replaces its password hash.
func (db *DB) PutUser(ctx context.Context, username string, passwordHash []byte) error {
	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO admin_user (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`),
		username,
		passwordHash,
	)
	return err
}

func (db *DB) PasswordHash(ctx context.Context, username string) ([]byte, error) {
	var hash []byte
	err := db.QueryRowContext(ctx, db.Rebind(`SELECT password_hash FROM admin_user WHERE username = ?`), username).
		Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return hash, err
}

func (db *DB) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO token (username, token_id, refresh_token_id, expiration)
		VALUES (?, ?, ?, ?)`),
		username,
		tokenID,
		refreshTokenID,
		expiration.UTC(),
	)
	return err
}

// ConsumeToken deletes a stored refresh token and reports whether it
// existed and had not expired yet.
func (db *DB) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string, now time.Time) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var expiration time.Time
	err = tx.QueryRowContext(ctx, db.Rebind(`
		SELECT expiration FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`),
		username,
		tokenID,
		refreshTokenID,
	).Scan(&expiration)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}

	_, err = tx.ExecContext(ctx, db.Rebind(`
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`),
		username,
		tokenID,
		refreshTokenID,
	)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return expiration.After(now), nil
}

// DeleteExpiredTokens removes refresh tokens past their expiration.
func (db *DB) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM token WHERE expiration < ?`), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
