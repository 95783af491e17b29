package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"DeliveryStore/internal/cart"
	"DeliveryStore/internal/catalog"
	"DeliveryStore/pkg/kit"
)

// The catalog client has to outlast the catalog's own response delay.
const catalogClientSlack = 2 * time.Second

func main() {
	service := "cart"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	kit.LoadEnv(log)
	port := kit.Getenv("PORT", "8083")

	storage, closer, err := openStorage(context.Background(), kit.Getenv("CART_STORAGE", "memory"))
	if err != nil {
		log.Fatal("cart storage init failed", zap.Error(err))
	}
	if closer != nil {
		defer closer.Close()
	}

	reg := prometheus.NewRegistry()
	store := cart.NewStore(storage, cart.StoreDeps{
		Log:       log,
		Registry:  reg,
		KeyPrefix: kit.Getenv("CART_KEY_PREFIX", cart.DefaultKeyPrefix),
	})

	catalogTimeout := kit.GetDuration("CATALOG_LATENCY", catalog.DefaultLatency) + catalogClientSlack
	s := &cart.Server{
		Store:             store,
		Catalog:           cart.NewCatalogClient(kit.Getenv("CATALOG_URL", "http://catalog:8082"), catalogTimeout),
		Log:               log,
		StrictPersistence: kit.GetBool("CART_STRICT_PERSISTENCE", false),
	}

	h := cart.NewHandler(s, cart.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStorage(ctx context.Context, kind string) (cart.Storage, io.Closer, error) {
	switch kind {
	case "redis":
		c, err := kit.OpenRedis(ctx, kit.Getenv("REDIS_URL", "redis://redis:6379/0"))
		if err != nil {
			return nil, nil, err
		}
		return cart.NewRedisStorage(c, kit.GetDuration("CART_TTL", 0)), c, nil
	case "postgres":
		db, err := kit.OpenPostgres(ctx, os.Getenv("DATABASE_URL"))
		if err != nil {
			return nil, nil, err
		}
		return cart.NewPostgresStorage(db), db, nil
	case "memory":
		return cart.NewMemStorage(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown CART_STORAGE %q", kind)
	}
}
