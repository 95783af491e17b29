package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"DeliveryStore/internal/auth"
	"DeliveryStore/pkg/kit"
)

func main() {
	service := "auth"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	kit.LoadEnv(log)
	port := kit.Getenv("PORT", "8081")

	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	store := auth.NewStore()
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := kit.OpenPostgres(context.Background(), dsn)
		if err != nil {
			log.Fatal("db connect failed", zap.Error(err))
		}
		defer db.Close()
		store = auth.NewPostgresStore(db)
	}

	s := &auth.Server{
		Log:   log,
		Store: store,
		JWT:   auth.NewTokenMaker(jwtSecret),
	}

	reg := prometheus.NewRegistry()
	h := auth.NewHandler(s, auth.HTTPDeps{
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
