package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const DefaultKeyPrefix = "bahrain_delivery_cart"

var (
	// ErrPersistence marks a failed read or write of the cart slot. The
	// operation still returns the best state it knows.
	ErrPersistence = errors.New("cart persistence failure")
	ErrCorruptCart = errors.New("corrupt cart payload")
)

type StoreDeps struct {
	Log       *zap.Logger
	Registry  prometheus.Registerer
	KeyPrefix string
}

// Store owns the cart slots kept in a Storage. Mutations of one slot are
// serialized; different slots proceed independently.
type Store struct {
	storage  Storage
	log      *zap.Logger
	prefix   string
	failures *prometheus.CounterVec
	locks    keyedMutex
}

func NewStore(storage Storage, deps StoreDeps) *Store {
	s := &Store{
		storage: storage,
		log:     deps.Log,
		prefix:  deps.KeyPrefix,
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deliverystore",
			Name:      "cart_persistence_failures_total",
			Help:      "Cart slot reads or writes that failed",
		}, []string{"op"}),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.prefix == "" {
		s.prefix = DefaultKeyPrefix
	}
	if deps.Registry != nil {
		deps.Registry.MustRegister(s.failures)
	}
	return s
}

func (s *Store) Ping(ctx context.Context) error { return s.storage.Ping(ctx) }

// Cart returns the cart stored for owner.
func (s *Store) Cart(owner string) *Cart {
	return &Cart{store: s, key: s.prefix + ":" + owner}
}

type Cart struct {
	store *Store
	key   string
}

func (c *Cart) Key() string { return c.key }

// Items returns the stored lines in insertion order. A missing slot is an
// empty cart; an unreadable one is reported and treated as empty.
func (c *Cart) Items(ctx context.Context) ([]Item, error) {
	return c.store.load(ctx, c.key, "get")
}

func (c *Cart) Summary(ctx context.Context) (Summary, error) {
	items, err := c.Items(ctx)
	return Summarize(items), err
}

func (c *Cart) ItemCount(ctx context.Context) (int, error) {
	items, err := c.Items(ctx)
	return ItemCount(items), err
}

func (c *Cart) Total(ctx context.Context) (float64, error) {
	items, err := c.Items(ctx)
	return Total(items), err
}

// Add appends it, or adds its quantity to the line with the same product and
// size. An existing line keeps the name, price and image it was added with.
func (c *Cart) Add(ctx context.Context, it Item) ([]Item, error) {
	return c.store.mutate(ctx, c.key, "add", func(items []Item) ([]Item, bool, error) {
		if err := it.Validate(); err != nil {
			return items, false, err
		}
		for i := range items {
			if items[i].key() != it.key() {
				continue
			}
			if it.Quantity > MaxQuantity-items[i].Quantity {
				return items, false, fmt.Errorf("%w: quantity must be at most %d", ErrInvalidItem, MaxQuantity)
			}
			items[i].Quantity += it.Quantity
			return items, true, nil
		}
		return append(items, it), true, nil
	})
}

// UpdateItem merges u into the line at index. An index outside the cart is a
// no-op. Moving the line onto the product and size of another line is rejected.
func (c *Cart) UpdateItem(ctx context.Context, index int, u Update) ([]Item, error) {
	return c.store.mutate(ctx, c.key, "update", func(items []Item) ([]Item, bool, error) {
		if index < 0 || index >= len(items) {
			return items, false, nil
		}
		next := u.apply(items[index])
		if err := next.Validate(); err != nil {
			return items, false, err
		}
		for i := range items {
			if i != index && items[i].key() == next.key() {
				return items, false, fmt.Errorf("%w: line %d already holds product %d size %d",
					ErrInvalidItem, i, next.ProductID, next.SizeID)
			}
		}
		items[index] = next
		return items, true, nil
	})
}

// RemoveItem deletes the line at index. An index outside the cart is a no-op.
func (c *Cart) RemoveItem(ctx context.Context, index int) ([]Item, error) {
	return c.store.mutate(ctx, c.key, "remove", func(items []Item) ([]Item, bool, error) {
		if index < 0 || index >= len(items) {
			return items, false, nil
		}
		return append(items[:index], items[index+1:]...), true, nil
	})
}

func (c *Cart) Clear(ctx context.Context) ([]Item, error) {
	return c.store.mutate(ctx, c.key, "clear", func([]Item) ([]Item, bool, error) {
		return []Item{}, true, nil
	})
}

// Discard deletes the cart slot. A discarded cart reads as empty.
func (c *Cart) Discard(ctx context.Context) error {
	unlock := c.store.locks.Lock(c.key)
	defer unlock()

	if err := c.store.storage.Delete(ctx, c.key); err != nil {
		return c.store.fail("discard", c.key, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, key, op string) ([]Item, error) {
	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return []Item{}, s.fail(op, key, err)
	}
	if !ok {
		return []Item{}, nil
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Item{}, s.fail(op, key, fmt.Errorf("%w: %w", ErrCorruptCart, err))
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// mutate applies fn to the current lines and persists the result when fn
// reports a change. If the slot cannot be read, nothing is written. A corrupt
// payload is overwritten by any change, which clears the error. If the write
// fails, the lines as they were before the mutation are returned.
func (s *Store) mutate(ctx context.Context, key, op string, fn func([]Item) ([]Item, bool, error)) ([]Item, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	items, loadErr := s.load(ctx, key, op)
	if loadErr != nil && !errors.Is(loadErr, ErrCorruptCart) {
		return items, loadErr
	}

	before := make([]Item, len(items))
	copy(before, items)
	next, changed, err := fn(items)
	if err != nil {
		return before, err
	}
	if !changed {
		return next, loadErr
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return before, s.fail(op, key, err)
	}
	if err := s.storage.Set(ctx, key, raw); err != nil {
		return before, s.fail(op, key, err)
	}
	return next, nil
}

func (s *Store) fail(op, key string, err error) error {
	s.failures.WithLabelValues(op).Inc()
	s.log.Error("cart persistence failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*refLock)
	}
	l, ok := k.m[key]
	if !ok {
		l = &refLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
