package auth

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type MemStore struct {
	mu      sync.RWMutex
	byEmail map[string]Customer
	cost    int
}

func NewMemStore() *MemStore {
	return &MemStore{byEmail: make(map[string]Customer), cost: bcrypt.DefaultCost}
}

// NewStore returns the in-memory customer store used when no database is configured.
func NewStore() CustomerStore {
	return NewMemStore()
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Create(ctx context.Context, c Customer, password string) error {
	c.Email = normalizeEmail(c.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(normalizePassword(password)), s.cost)
	if err != nil {
		return err
	}
	c.Hash = hash

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[c.Email]; ok {
		return ErrEmailExists
	}
	s.byEmail[c.Email] = c
	return nil
}

func (s *MemStore) Verify(ctx context.Context, email, password string) (Customer, error) {
	s.mu.RLock()
	c, ok := s.byEmail[normalizeEmail(email)]
	s.mu.RUnlock()

	if !ok {
		return Customer{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(c.Hash, []byte(normalizePassword(password))); err != nil {
		return Customer{}, ErrInvalidCredentials
	}
	return c, nil
}
