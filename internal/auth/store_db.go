package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"DeliveryStore/pkg/kit"
)

const pgUniqueCode = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return kit.WithTimeout(ctx, kit.PingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Create(ctx context.Context, c Customer, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(normalizePassword(password)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO customers (id, name, email, phone, pass_hash, role)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, c.ID, c.Name, normalizeEmail(c.Email), c.Phone, hash, c.Role)

		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	})
}

func (s *PostgresStore) Verify(ctx context.Context, email, password string) (Customer, error) {
	var c Customer
	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name, email, phone, pass_hash, role
			FROM customers
			WHERE email = $1
		`, normalizeEmail(email)).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Hash, &c.Role)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, ErrInvalidCredentials
	}
	if err != nil {
		return Customer{}, err
	}

	if err := bcrypt.CompareHashAndPassword(c.Hash, []byte(normalizePassword(password))); err != nil {
		return Customer{}, ErrInvalidCredentials
	}
	return c, nil
}


func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
