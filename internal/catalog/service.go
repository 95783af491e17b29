package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultRelatedLimit = 4
	DefaultLatency      = 500 * time.Millisecond
)

var ErrNotFound = errors.New("product not found")

type Filter struct {
	Category string
	Search   string
}

// Service answers catalog queries. Every call first waits Latency, the fixed
// response delay storefront clients are built against; the wait ends early
// when ctx is cancelled.
type Service struct {
	Store   Store
	Latency time.Duration
}

func NewService(store Store, latency time.Duration) *Service {
	return &Service{Store: store, Latency: latency}
}

// ParseID coerces a path or query identifier to a product id.
// Anything that is not a positive integer cannot name a product.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, ErrNotFound
	}
	return id, nil
}

func (s *Service) ProductByID(ctx context.Context, id int) (Product, error) {
	if err := s.wait(ctx); err != nil {
		return Product{}, err
	}

	p, ok, err := s.Store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// RelatedProducts returns up to limit products of category other than id,
// in catalog order. limit <= 0 selects DefaultRelatedLimit.
func (s *Service) RelatedProducts(ctx context.Context, id int, category string, limit int) ([]Product, error) {
	// Zero means "unset" here, not an empty page. Callers wanting no related
	// products should skip the call.
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	all, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, limit)
	for _, p := range all {
		if len(out) == limit {
			break
		}
		if p.ID != id && p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// Products lists the catalog, narrowed by exact category and by a
// case-insensitive substring of either localized name.
func (s *Service) Products(ctx context.Context, f Filter) ([]Product, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	all, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(f.Search)
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if search != "" && !p.Name.containsFold(search) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.Latency <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(s.Latency)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
