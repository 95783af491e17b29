package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"DeliveryStore/pkg/kit"
)

// PostgresStorage stores cart slots in the cart_slots table:
//
//	CREATE TABLE cart_slots (
//		key        TEXT PRIMARY KEY,
//		payload    JSONB NOT NULL,
//		updated_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return kit.WithTimeout(ctx, kit.PingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT payload
			FROM cart_slots
			WHERE key = $1
		`, key).Scan(&payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *PostgresStorage) Set(ctx context.Context, key string, val []byte) error {
	return kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO cart_slots (key, payload, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE
			SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
		`, key, string(val), time.Now().UTC())
		return err
	})
}

func (s *PostgresStorage) Delete(ctx context.Context, key string) error {
	return kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM cart_slots WHERE key = $1`, key)
		return err
	})
}

