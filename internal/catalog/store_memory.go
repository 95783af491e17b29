package catalog

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu   sync.RWMutex
	m    map[int]Product
	list []Product
}

func NewMemStore(products ...Product) *MemStore {
	s := &MemStore{m: make(map[int]Product, len(products))}
	for _, p := range products {
		s.m[p.ID] = p
	}
	s.list = make([]Product, 0, len(s.m))
	for _, p := range s.m {
		s.list = append(s.list, p)
	}
	sort.Slice(s.list, func(i, j int) bool { return s.list[i].ID < s.list[j].ID })
	return s
}

// NewStore returns the in-memory store seeded with the launch catalog.
func NewStore() *MemStore {
	return NewMemStore(SeedProducts()...)
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.list))
	copy(out, s.list)
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}
