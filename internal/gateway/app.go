package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"DeliveryStore/internal/auth"
	"DeliveryStore/pkg/kit"
)

type HTTPDeps = kit.HTTPDeps

type Deps struct {
	AuthURL    string
	CatalogURL string
	CartURL    string
	JWTSecret  string
}

func (d Deps) upstreams() map[string]string {
	return map[string]string{
		"auth":    d.AuthURL,
		"catalog": d.CatalogURL,
		"cart":    d.CartURL,
	}
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	authProxy, err := NewReverseProxy(deps.AuthURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("auth upstream: %w", err)
	}
	catalogProxy, err := NewReverseProxy(deps.CatalogURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("catalog upstream: %w", err)
	}
	cartProxy, err := NewReverseProxy(deps.CartURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("cart upstream: %w", err)
	}

	jwt := auth.NewTokenMaker(deps.JWTSecret)

	r := kit.NewRouter(httpDeps)
	r.Get("/healthz", kit.Healthz)
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	r.Handle("/auth", authProxy)
	r.Handle("/auth/*", authProxy)

	r.Handle("/products", catalogProxy)
	r.Handle("/products/*", catalogProxy)

	r.Group(func(cr chi.Router) {
		cr.Use(OptionalAuthJWT(jwt))
		cr.Use(InjectHeaders)
		cr.Handle("/cart", cartProxy)
		cr.Handle("/cart/*", cartProxy)
	})

	return r, nil
}

// readyz probes every upstream at once and reports the first one that is down.
func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for name, base := range deps.upstreams() {
			g.Go(func() error {
				if err := checkReady(gctx, base+"/readyz"); err != nil {
					return fmt.Errorf("%s not ready: %w", name, err)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			log.Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", map[string]any{"cause": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
