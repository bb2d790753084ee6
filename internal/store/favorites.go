package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresFavorites stores each user's favorite channel IDs.
type PostgresFavorites struct {
	pool *pgxpool.Pool
}

func NewPostgresFavorites(pool *pgxpool.Pool) *PostgresFavorites {
	return &PostgresFavorites{pool: pool}
}

func (s *PostgresFavorites) Add(ctx context.Context, userID, channelID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO favorites (user_id, channel_id) VALUES ($1, $2)
		ON CONFLICT (user_id, channel_id) DO NOTHING`, userID, channelID)
	if err != nil {
		return fmt.Errorf("add favorite: %w (%w)", err, ErrStorage)
	}
	return nil
}

func (s *PostgresFavorites) Remove(ctx context.Context, userID, channelID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM favorites WHERE user_id = $1 AND channel_id = $2`, userID, channelID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w (%w)", err, ErrStorage)
	}
	return nil
}

func (s *PostgresFavorites) List(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT channel_id FROM favorites WHERE user_id = $1 ORDER BY added_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w (%w)", err, ErrStorage)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w (%w)", err, ErrStorage)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read favorites: %w (%w)", err, ErrStorage)
	}
	return ids, nil
}
