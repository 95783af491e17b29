package storefront

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"DeliveryStore/internal/cart"
)

// CartStore is the part of *cart.Cart a CartView drives.
type CartStore interface {
	Items(ctx context.Context) ([]cart.Item, error)
	Add(ctx context.Context, it cart.Item) ([]cart.Item, error)
	UpdateItem(ctx context.Context, index int, u cart.Update) ([]cart.Item, error)
	RemoveItem(ctx context.Context, index int) ([]cart.Item, error)
	Clear(ctx context.Context) ([]cart.Item, error)
}

type CartState struct {
	Items     []cart.Item
	ItemCount int
	Total     float64
	Loading   bool

	// Err is the last persistence failure reported by the store, if any.
	Err error
}

// CartView caches one cart for rendering. Every operation goes to the store
// and then recomputes the count and total from what the store returned.
type CartView struct {
	store CartStore
	log   *zap.Logger

	mu    sync.RWMutex
	state CartState
}

// NewCartView loads the cart once before returning.
func NewCartView(ctx context.Context, store CartStore, log *zap.Logger) *CartView {
	if log == nil {
		log = zap.NewNop()
	}
	v := &CartView{
		store: store,
		log:   log,
		state: CartState{Items: []cart.Item{}, Loading: true},
	}
	_ = v.Load(ctx)
	return v
}

// Load rebuilds the cached state from the store.
func (v *CartView) Load(ctx context.Context) error {
	v.mu.Lock()
	v.state.Loading = true
	v.mu.Unlock()

	items, err := v.store.Items(ctx)
	if err != nil {
		v.log.Warn("load cart", zap.Error(err))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.set(items, err)
	v.state.Loading = false
	return err
}

func (v *CartView) State() CartState {
	v.mu.RLock()
	defer v.mu.RUnlock()

	st := v.state
	st.Items = append([]cart.Item(nil), v.state.Items...)
	return st
}

func (v *CartView) AddItem(ctx context.Context, it cart.Item) ([]cart.Item, error) {
	items, err := v.store.Add(ctx, it)
	return v.apply("add", items, err)
}

func (v *CartView) UpdateItem(ctx context.Context, index int, u cart.Update) ([]cart.Item, error) {
	items, err := v.store.UpdateItem(ctx, index, u)
	return v.apply("update", items, err)
}

func (v *CartView) RemoveItem(ctx context.Context, index int) ([]cart.Item, error) {
	items, err := v.store.RemoveItem(ctx, index)
	return v.apply("remove", items, err)
}

func (v *CartView) Clear(ctx context.Context) ([]cart.Item, error) {
	items, err := v.store.Clear(ctx)
	return v.apply("clear", items, err)
}

// apply keeps the cached lines when the store rejected the operation or
// could not be reached; a failed read hands back an empty cart that says
// nothing about what is stored.
func (v *CartView) apply(op string, items []cart.Item, err error) ([]cart.Item, error) {
	if err != nil {
		v.log.Warn("cart operation failed", zap.String("op", op), zap.Error(err))
		if errors.Is(err, cart.ErrPersistence) {
			v.mu.Lock()
			v.state.Err = err
			v.mu.Unlock()
		}
		return items, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.set(items, nil)
	return items, nil
}

func (v *CartView) set(items []cart.Item, err error) {
	if items == nil {
		items = []cart.Item{}
	}
	v.state.Items = items
	v.state.ItemCount = cart.ItemCount(items)
	v.state.Total = cart.Total(items)
	v.state.Err = err
}
