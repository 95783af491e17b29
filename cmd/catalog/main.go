package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"DeliveryStore/internal/catalog"
	"DeliveryStore/pkg/kit"
)

func main() {
	service := "catalog"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	kit.LoadEnv(log)
	port := kit.Getenv("PORT", "8082")

	var store catalog.Store = catalog.NewStore()
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := kit.OpenPostgres(context.Background(), dsn)
		if err != nil {
			log.Fatal("db connect failed", zap.Error(err))
		}
		defer db.Close()
		store = catalog.NewPostgresStore(db)
	}

	latency := kit.GetDuration("CATALOG_LATENCY", catalog.DefaultLatency)
	s := &catalog.Server{
		Service: catalog.NewService(store, latency),
		Log:     log,
	}

	reg := prometheus.NewRegistry()
	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	log.Info("catalog configured", zap.Duration("latency", latency), zap.Bool("postgres", os.Getenv("DATABASE_URL") != ""))
	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
