package storefront

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"DeliveryStore/internal/cart"
	"DeliveryStore/internal/catalog"
)

var ErrNotLoaded = errors.New("product not loaded")

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusNotFound:
		return "not_found"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Catalog is satisfied by *catalog.Service.
type Catalog interface {
	ProductByID(ctx context.Context, id int) (catalog.Product, error)
	RelatedProducts(ctx context.Context, id int, category string, limit int) ([]catalog.Product, error)
}

type ProductState struct {
	ID      int
	Status  Status
	Product catalog.Product
	Err     error

	Related        []catalog.Product
	RelatedLoading bool

	SelectedImage int
	SelectedSize  int
	Quantity      int
}

// ProductView backs a product page: the product being shown, its related
// products and the shopper's image, size and quantity selection.
type ProductView struct {
	catalog      Catalog
	log          *zap.Logger
	relatedLimit int

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu     sync.Mutex
	state  ProductState
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

func NewProductView(c Catalog, log *zap.Logger) *ProductView {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &ProductView{
		catalog:      c,
		log:          log,
		relatedLimit: catalog.DefaultRelatedLimit,
		ctx:          ctx,
		stop:         stop,
		state:        ProductState{Quantity: 1},
	}
}

// Show switches the view to product id. A fetch still running for a
// previous id is cancelled and its result discarded. Showing the id that is
// already loading or loaded does nothing.
func (v *ProductView) Show(id int) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	if v.state.ID == id && (v.state.Status == StatusLoading || v.state.Status == StatusLoaded) {
		v.mu.Unlock()
		return
	}

	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	v.gen++
	gen := v.gen
	v.state = ProductState{ID: id, Status: StatusLoading, Quantity: 1}
	v.wg.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.wg.Done()
		defer cancel()
		v.fetch(ctx, gen, id)
	}()
}

func (v *ProductView) fetch(ctx context.Context, gen uint64, id int) {
	p, err := v.catalog.ProductByID(ctx, id)

	ok := v.update(ctx, gen, func(st *ProductState) {
		switch {
		case err == nil:
			st.Status = StatusLoaded
			st.Product = p
			st.RelatedLoading = true
			if s, ok := p.Size(0); ok {
				st.SelectedSize = s.ID
			}
		case errors.Is(err, catalog.ErrNotFound):
			st.Status = StatusNotFound
			st.Err = err
		default:
			st.Status = StatusError
			st.Err = err
		}
	})
	if !ok || err != nil {
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			v.log.Warn("fetch product", zap.Int("product_id", id), zap.Error(err))
		}
		return
	}

	related, err := v.catalog.RelatedProducts(ctx, p.ID, p.Category, v.relatedLimit)
	v.update(ctx, gen, func(st *ProductState) {
		st.RelatedLoading = false
		if err != nil {
			v.log.Warn("fetch related products", zap.Int("product_id", id), zap.Error(err))
			return
		}
		st.Related = related
	})
}

// update applies fn unless the fetch identified by gen has been superseded
// or cancelled.
func (v *ProductView) update(ctx context.Context, gen uint64, fn func(*ProductState)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen || ctx.Err() != nil {
		return false
	}
	fn(&v.state)
	return true
}

func (v *ProductView) State() ProductState {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := v.state
	st.Related = append([]catalog.Product(nil), v.state.Related...)
	return st
}

// SelectImage picks a gallery image of the loaded product.
func (v *ProductView) SelectImage(index int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state.Status != StatusLoaded || index < 0 || index >= max(len(v.state.Product.Images), 1) {
		return false
	}
	v.state.SelectedImage = index
	return true
}

// SelectSize picks one of the loaded product's sizes.
func (v *ProductView) SelectSize(sizeID int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state.Status != StatusLoaded || sizeID == 0 {
		return false
	}
	if _, ok := v.state.Product.Size(sizeID); !ok {
		return false
	}
	v.state.SelectedSize = sizeID
	return true
}

// IncrementQuantity stops at cart.MaxQuantity.
func (v *ProductView) IncrementQuantity() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state.Quantity < cart.MaxQuantity {
		v.state.Quantity++
	}
	return v.state.Quantity
}

// DecrementQuantity never goes below 1.
func (v *ProductView) DecrementQuantity() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state.Quantity > 1 {
		v.state.Quantity--
	}
	return v.state.Quantity
}

// CartItem builds the cart line for the current selection.
func (v *ProductView) CartItem(lang string) (cart.Item, error) {
	v.mu.Lock()
	st := v.state
	v.mu.Unlock()

	if st.Status != StatusLoaded {
		return cart.Item{}, ErrNotLoaded
	}
	return cart.SnapshotItem(st.Product, st.SelectedSize, st.Quantity, lang)
}

// AddToCart adds the product view's current selection to the cart view.
func AddToCart(ctx context.Context, pv *ProductView, cv *CartView, lang string) ([]cart.Item, error) {
	it, err := pv.CartItem(lang)
	if err != nil {
		return nil, err
	}
	return cv.AddItem(ctx, it)
}

// Wait blocks until no fetch is running.
func (v *ProductView) Wait() {
	v.wg.Wait()
}

// Close cancels any running fetch and waits for it. Show is a no-op afterwards.
func (v *ProductView) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()

	v.stop()
	v.wg.Wait()
}
