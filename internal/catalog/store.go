package catalog

import "context"

// Store is the read-only product source behind the catalog service.
// List returns products in catalog order (ascending id).
type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int) (Product, bool, error)
}
