package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"DeliveryStore/internal/cart"
	"DeliveryStore/internal/catalog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newCart(t *testing.T, storage cart.Storage) *cart.Cart {
	t.Helper()
	return cart.NewStore(storage, cart.StoreDeps{}).Cart("guest:test")
}

func TestCartView_ScenarioKeepsAggregatesInStep(t *testing.T) {
	ctx := context.Background()
	v := NewCartView(ctx, newCart(t, cart.NewMemStorage()), nil)

	st := v.State()
	require.False(t, st.Loading)
	require.Empty(t, st.Items)
	require.Zero(t, st.ItemCount)
	require.Zero(t, st.Total)

	water := cart.Item{ProductID: 1, Name: "Water", Price: 1.5, Quantity: 2, SizeID: 1, SizeName: "18L"}
	_, err := v.AddItem(ctx, water)
	require.NoError(t, err)
	st = v.State()
	assert.Len(t, st.Items, 1)
	assert.Equal(t, 2, st.ItemCount)
	assert.InDelta(t, 3.0, st.Total, 1e-9)

	water.Quantity = 1
	water.Price = 9.9
	_, err = v.AddItem(ctx, water)
	require.NoError(t, err)
	st = v.State()
	assert.Len(t, st.Items, 1)
	assert.Equal(t, 3, st.ItemCount)
	assert.InDelta(t, 4.5, st.Total, 1e-9)

	_, err = v.AddItem(ctx, cart.Item{ProductID: 2, Name: "Carton", Price: 8.5, Quantity: 1, SizeID: 1})
	require.NoError(t, err)
	st = v.State()
	assert.Equal(t, 4, st.ItemCount)
	assert.InDelta(t, 13.0, st.Total, 1e-9)

	qty := 3
	_, err = v.UpdateItem(ctx, 1, cart.Update{Quantity: &qty})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, v.State().Total, 1e-9)

	_, err = v.RemoveItem(ctx, 0)
	require.NoError(t, err)
	st = v.State()
	assert.Equal(t, 3, st.ItemCount)
	assert.InDelta(t, 25.5, st.Total, 1e-9)

	_, err = v.Clear(ctx)
	require.NoError(t, err)
	st = v.State()
	assert.Empty(t, st.Items)
	assert.Zero(t, st.ItemCount)
	assert.Zero(t, st.Total)
}

func TestCartView_LoadsExistingCart(t *testing.T) {
	ctx := context.Background()
	storage := cart.NewMemStorage()
	c := newCart(t, storage)
	_, err := c.Add(ctx, cart.Item{ProductID: 3, Name: "Gas", Price: 8.5, Quantity: 2, SizeID: 1})
	require.NoError(t, err)

	st := NewCartView(ctx, c, nil).State()
	assert.Equal(t, 2, st.ItemCount)
	assert.InDelta(t, 17.0, st.Total, 1e-9)
}

func TestCartView_RejectedItemLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	v := NewCartView(ctx, newCart(t, cart.NewMemStorage()), nil)

	_, err := v.AddItem(ctx, cart.Item{ProductID: 1, Name: "Water", Price: 1.5, Quantity: 1, SizeID: 1})
	require.NoError(t, err)

	_, err = v.AddItem(ctx, cart.Item{ProductID: 0, Quantity: 1})
	require.ErrorIs(t, err, cart.ErrInvalidItem)

	st := v.State()
	assert.Len(t, st.Items, 1)
	assert.NoError(t, st.Err)
}

type failingStore struct {
	CartStore
	fail bool
}

func (s *failingStore) Add(ctx context.Context, it cart.Item) ([]cart.Item, error) {
	if s.fail {
		return []cart.Item{}, fmt.Errorf("%w: add: disk full", cart.ErrPersistence)
	}
	return s.CartStore.Add(ctx, it)
}

func TestCartView_PersistenceFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{CartStore: newCart(t, cart.NewMemStorage())}
	v := NewCartView(ctx, fs, nil)

	_, err := v.AddItem(ctx, cart.Item{ProductID: 1, Name: "Water", Price: 1.5, Quantity: 1, SizeID: 1})
	require.NoError(t, err)

	fs.fail = true
	_, err = v.AddItem(ctx, cart.Item{ProductID: 2, Name: "Carton", Price: 3.2, Quantity: 1, SizeID: 1})
	require.ErrorIs(t, err, cart.ErrPersistence)

	st := v.State()
	assert.Len(t, st.Items, 1)
	assert.ErrorIs(t, st.Err, cart.ErrPersistence)

	fs.fail = false
	require.NoError(t, v.Load(ctx))
	assert.NoError(t, v.State().Err)
}

func TestCartView_StateIsACopy(t *testing.T) {
	ctx := context.Background()
	v := NewCartView(ctx, newCart(t, cart.NewMemStorage()), nil)
	_, err := v.AddItem(ctx, cart.Item{ProductID: 1, Name: "Water", Price: 1.5, Quantity: 1, SizeID: 1})
	require.NoError(t, err)

	st := v.State()
	st.Items[0].Quantity = 99
	assert.Equal(t, 1, v.State().Items[0].Quantity)
}

func TestProductView_LoadsProductThenRelated(t *testing.T) {
	v := NewProductView(catalog.NewService(catalog.NewStore(), 0), nil)
	t.Cleanup(v.Close)

	assert.Equal(t, StatusIdle, v.State().Status)

	v.Show(1)
	v.Wait()

	st := v.State()
	require.Equal(t, StatusLoaded, st.Status, st.Err)
	assert.Equal(t, 1, st.Product.ID)
	assert.Equal(t, 1, st.SelectedSize)
	assert.Equal(t, 0, st.SelectedImage)
	assert.Equal(t, 1, st.Quantity)
	assert.False(t, st.RelatedLoading)
	require.Len(t, st.Related, 1)
	assert.Equal(t, 2, st.Related[0].ID)
}

func TestProductView_NotFound(t *testing.T) {
	v := NewProductView(catalog.NewService(catalog.NewStore(), 0), nil)
	t.Cleanup(v.Close)

	v.Show(999)
	v.Wait()

	st := v.State()
	assert.Equal(t, StatusNotFound, st.Status)
	assert.ErrorIs(t, st.Err, catalog.ErrNotFound)
	assert.Empty(t, st.Related)

	_, err := v.CartItem(catalog.LangEN)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestProductView_SelectionsResetOnProductChange(t *testing.T) {
	v := NewProductView(catalog.NewService(catalog.NewStore(), 0), nil)
	t.Cleanup(v.Close)

	v.Show(1)
	v.Wait()

	require.True(t, v.SelectImage(1))
	require.False(t, v.SelectImage(5))
	require.True(t, v.SelectSize(2))
	require.False(t, v.SelectSize(42))
	v.IncrementQuantity()
	assert.Equal(t, 3, v.IncrementQuantity())

	it, err := v.CartItem(catalog.LangEN)
	require.NoError(t, err)
	assert.Equal(t, 2, it.SizeID)
	assert.Equal(t, "12 Liters", it.SizeName)
	assert.InDelta(t, 1.2, it.Price, 1e-9)
	assert.Equal(t, 3, it.Quantity)

	v.Show(3)
	assert.Equal(t, StatusLoading, v.State().Status)
	v.Wait()

	st := v.State()
	require.Equal(t, StatusLoaded, st.Status)
	assert.Equal(t, 3, st.Product.ID)
	assert.Equal(t, 0, st.SelectedImage)
	assert.Equal(t, 1, st.SelectedSize)
	assert.Equal(t, 1, st.Quantity)
}

func TestProductView_DecrementStopsAtOne(t *testing.T) {
	v := NewProductView(catalog.NewService(catalog.NewStore(), 0), nil)
	t.Cleanup(v.Close)

	assert.Equal(t, 2, v.IncrementQuantity())
	assert.Equal(t, 1, v.DecrementQuantity())
	assert.Equal(t, 1, v.DecrementQuantity())
}

func TestProductView_IncrementStopsAtCartMax(t *testing.T) {
	v := NewProductView(catalog.NewService(catalog.NewStore(), 0), nil)
	t.Cleanup(v.Close)

	for i := 1; i < cart.MaxQuantity; i++ {
		v.IncrementQuantity()
	}
	assert.Equal(t, cart.MaxQuantity, v.IncrementQuantity())
	assert.Equal(t, cart.MaxQuantity, v.State().Quantity)
}

// gatedCatalog holds ProductByID for chosen ids until released and ignores
// cancellation, so a superseded fetch still delivers a result.
type gatedCatalog struct {
	*catalog.Service

	mu    sync.Mutex
	gates map[int]chan struct{}
}

func (g *gatedCatalog) gate(id int) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates == nil {
		g.gates = make(map[int]chan struct{})
	}
	ch, ok := g.gates[id]
	if !ok {
		ch = make(chan struct{})
		g.gates[id] = ch
	}
	return ch
}

func (g *gatedCatalog) ProductByID(ctx context.Context, id int) (catalog.Product, error) {
	<-g.gate(id)
	return g.Service.ProductByID(context.Background(), id)
}

func TestProductView_StaleResultDiscarded(t *testing.T) {
	gc := &gatedCatalog{Service: catalog.NewService(catalog.NewStore(), 0)}
	v := NewProductView(gc, nil)
	t.Cleanup(v.Close)

	v.Show(1)
	v.Show(3)
	close(gc.gate(3))

	require.Eventually(t, func() bool { return v.State().Status == StatusLoaded }, time.Second, 5*time.Millisecond)

	close(gc.gate(1))
	v.Wait()

	st := v.State()
	assert.Equal(t, 3, st.ID)
	assert.Equal(t, 3, st.Product.ID)
}

func TestProductView_CloseCancelsFetch(t *testing.T) {
	v := NewProductView(catalog.NewService(catalog.NewStore(), time.Hour), nil)

	v.Show(1)
	done := make(chan struct{})
	go func() {
		v.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel the running fetch")
	}
	assert.Equal(t, StatusLoading, v.State().Status)

	v.Show(2)
	assert.Equal(t, 1, v.State().ID)
}

type brokenCatalog struct{ Catalog }

func (brokenCatalog) ProductByID(context.Context, int) (catalog.Product, error) {
	return catalog.Product{}, errors.New("connection refused")
}

func TestProductView_FetchError(t *testing.T) {
	v := NewProductView(brokenCatalog{}, nil)
	t.Cleanup(v.Close)

	v.Show(1)
	v.Wait()

	st := v.State()
	assert.Equal(t, StatusError, st.Status)
	assert.EqualError(t, st.Err, "connection refused")
	assert.Equal(t, "error", st.Status.String())
}

func TestAddToCart(t *testing.T) {
	ctx := context.Background()
	pv := NewProductView(catalog.NewService(catalog.NewStore(), 0), nil)
	t.Cleanup(pv.Close)
	cv := NewCartView(ctx, newCart(t, cart.NewMemStorage()), nil)

	_, err := AddToCart(ctx, pv, cv, catalog.LangAR)
	require.ErrorIs(t, err, ErrNotLoaded)

	pv.Show(4)
	pv.Wait()
	pv.IncrementQuantity()

	_, err = AddToCart(ctx, pv, cv, catalog.LangAR)
	require.NoError(t, err)

	st := cv.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, 4, st.Items[0].ProductID)
	assert.Equal(t, 2, st.ItemCount)
}
