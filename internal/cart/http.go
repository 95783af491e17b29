package cart

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"DeliveryStore/internal/catalog"
	"DeliveryStore/pkg/kit"
)

type Server struct {
	Store   *Store
	Catalog ProductSource
	Log     *zap.Logger

	// StrictPersistence turns absorbed storage failures into 503 responses.
	StrictPersistence bool
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", kit.Healthz)
	r.Get("/readyz", s.ready)

	r.Post("/cart/session", s.newSession)

	r.Group(func(pr chi.Router) {
		pr.Use(RequireOwner)
		pr.Delete("/cart/session", s.endSession)
		pr.Get("/cart", s.get)
		pr.Delete("/cart", s.clear)
		pr.Post("/cart/items", s.addItem)
		pr.Patch("/cart/items/{index}", s.updateItem)
		pr.Delete("/cart/items/{index}", s.removeItem)
	})

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), kit.PingTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.log().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type sessionResp struct {
	SessionID string `json:"session_id"`
}

func (s *Server) newSession(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusCreated, sessionResp{SessionID: uuid.NewString()})
}

// endSession drops the caller's cart slot, e.g. when a guest signs out.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	if err := s.cart(r).Discard(r.Context()); err != nil && s.StrictPersistence {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "cart unavailable", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cart(r *http.Request) *Cart {
	owner, _ := OwnerFromContext(r.Context())
	return s.Store.Cart(owner)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	items, err := s.cart(r).Items(r.Context())
	s.respond(w, r, items, err)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	items, err := s.cart(r).Clear(r.Context())
	s.respond(w, r, items, err)
}

type addItemReq struct {
	ProductID int    `json:"product_id"`
	SizeID    int    `json:"size_id"`
	Quantity  int    `json:"quantity"`
	Lang      string `json:"lang"`
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.ProductID <= 0 || req.Quantity < 0 || req.Quantity > MaxQuantity {
		kit.WriteError(w, r, http.StatusBadRequest, "bad item", nil)
		return
	}
	if req.Lang == "" {
		req.Lang = catalog.DefaultLang
	}

	p, err := s.Catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		s.writeCatalogError(w, r, err, req.ProductID)
		return
	}

	it, err := SnapshotItem(p, req.SizeID, req.Quantity, req.Lang)
	if err != nil {
		if errors.Is(err, ErrUnknownSize) {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid size_id", map[string]any{"size_id": req.SizeID})
			return
		}
		kit.WriteError(w, r, http.StatusBadRequest, "bad item", map[string]any{"cause": err.Error()})
		return
	}

	items, err := s.cart(r).Add(r.Context(), it)
	s.respond(w, r, items, err)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	var u Update
	if err := kit.DecodeJSON(w, r, &u); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	items, err := s.cart(r).UpdateItem(r.Context(), index, u)
	s.respond(w, r, items, err)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	items, err := s.cart(r).RemoveItem(r.Context(), index)
	s.respond(w, r, items, err)
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad index", map[string]any{"index": raw})
		return 0, false
	}
	return index, true
}

// respond writes the cart summary. Persistence failures were already logged
// by the store; unless StrictPersistence is set the client gets the best
// known cart.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, items []Item, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidItem):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid item", map[string]any{"cause": err.Error()})
		return
	case errors.Is(err, ErrPersistence):
		if s.StrictPersistence {
			kit.WriteError(w, r, http.StatusServiceUnavailable, "cart unavailable", nil)
			return
		}
	default:
		s.log().Error("cart operation failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, Summarize(items))
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error, productID int) {
	switch {
	case errors.Is(err, ErrCatalogNotFound):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product_id", map[string]any{"product_id": productID})
	case errors.Is(err, ErrCatalogUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.log().Warn("catalog error", zap.Error(err), zap.Int("product_id", productID))
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	}
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
