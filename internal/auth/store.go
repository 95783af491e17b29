package auth

import (
	"context"
	"errors"
	"strings"
)

const RoleCustomer = "customer"

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
	Hash  []byte
	Role  string
}

type CustomerStore interface {
	Create(ctx context.Context, c Customer, password string) error
	Verify(ctx context.Context, email, password string) (Customer, error)
	Ping(ctx context.Context) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePassword(password string) string {
	return strings.TrimSpace(password)
}
