package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"DeliveryStore/pkg/kit"
)

type Server struct {
	Service *Service
	Log     *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", kit.Healthz)

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), kit.PingTimeout)
		defer cancel()

		if err := s.Service.Store.Ping(ctx); err != nil {
			s.log().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/products/{id}/related", s.related)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := s.Service.Products(r.Context(), Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	})
	if err != nil {
		s.writeError(w, r, err, "list products failed", zap.String("category", q.Get("category")))
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")

	p, err := s.lookup(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err, "get product failed", zap.String("id", raw))
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) related(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad limit", map[string]any{"limit": v})
			return
		}
		limit = n
	}

	p, err := s.lookup(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err, "get product failed", zap.String("id", raw))
		return
	}

	related, err := s.Service.RelatedProducts(r.Context(), p.ID, p.Category, limit)
	if err != nil {
		s.writeError(w, r, err, "related products failed", zap.Int("id", p.ID))
		return
	}
	kit.WriteJSON(w, http.StatusOK, related)
}

func (s *Server) lookup(ctx context.Context, raw string) (Product, error) {
	id, err := ParseID(raw)
	if err != nil {
		return Product{}, err
	}
	return s.Service.ProductByID(ctx, id)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, msg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": chi.URLParam(r, "id")})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.log().Error(msg, append(fields, zap.Error(err))...)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
