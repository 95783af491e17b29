package kit

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

const (
	connectTimeout = 5 * time.Second

	// PingTimeout bounds readiness checks against a backing store.
	PingTimeout = 1 * time.Second
	// QueryTimeout bounds a single store query.
	QueryTimeout = 3 * time.Second
)

// OpenPostgres opens a database/sql pool backed by the pgx driver and checks it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenRedis accepts either a redis:// URL or a bare host:port address.
func OpenRedis(ctx context.Context, addrOrURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(addrOrURL)
	if err != nil {
		opt = &redis.Options{Addr: addrOrURL}
	}
	c := redis.NewClient(opt)

	pctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// WithTimeout runs fn under a child of parent that expires after d.
func WithTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
