package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KigaliAI/youtufy-app/internal/model"
)

// PostgresStore persists credentials in the oauth_credentials table,
// one row per user identity.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*model.Credential, error) {
	query := `
		SELECT user_id, access_token, refresh_token, expiry, scopes
		FROM oauth_credentials
		WHERE user_id = $1`

	var cred model.Credential
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&cred.UserID, &cred.AccessToken, &cred.RefreshToken, &cred.Expiry, &cred.Scopes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query credential: %w (%w)", err, ErrStorage)
	}
	return &cred, nil
}

func (s *PostgresStore) Put(ctx context.Context, userID string, cred *model.Credential) error {
	query := `
		INSERT INTO oauth_credentials (user_id, access_token, refresh_token, expiry, scopes, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    expiry = EXCLUDED.expiry,
		    scopes = EXCLUDED.scopes,
		    updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query, userID, cred.AccessToken, cred.RefreshToken, cred.Expiry, cred.Scopes)
	if err != nil {
		return fmt.Errorf("upsert credential: %w (%w)", err, ErrStorage)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM oauth_credentials WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete credential: %w (%w)", err, ErrStorage)
	}
	return nil
}
