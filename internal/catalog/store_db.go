package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"DeliveryStore/pkg/kit"
)

const productColumns = `
	id, name_ar, name_en, description_ar, description_en,
	price, old_price, discount, image, category, rating, reviews_count,
	sizes, features, images`

// PostgresStore reads the catalog from the products table. Size, feature and
// image lists are stored as JSONB columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return kit.WithTimeout(ctx, kit.PingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	var out []Product

	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Product, bool, error) {
	var p Product

	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.db.QueryRowContext(ctx,
			`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p                       Product
		oldPrice                sql.NullFloat64
		sizes, features, images []byte
	)
	err := row.Scan(
		&p.ID, &p.Name.AR, &p.Name.EN, &p.Description.AR, &p.Description.EN,
		&p.Price, &oldPrice, &p.Discount, &p.Image, &p.Category, &p.Rating, &p.ReviewsCount,
		&sizes, &features, &images,
	)
	if err != nil {
		return Product{}, err
	}
	if oldPrice.Valid {
		p.OldPrice = price(oldPrice.Float64)
	}

	if err := unmarshalColumn("sizes", sizes, &p.Sizes); err != nil {
		return Product{}, err
	}
	if err := unmarshalColumn("features", features, &p.Features); err != nil {
		return Product{}, err
	}
	if err := unmarshalColumn("images", images, &p.Images); err != nil {
		return Product{}, err
	}
	return p, nil
}

func unmarshalColumn(name string, raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s column: %w", name, err)
	}
	return nil
}

