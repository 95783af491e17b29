package cart

import (
	"net/http"

	"DeliveryStore/pkg/kit"
)

type HTTPDeps = kit.HTTPDeps

// NewHandler serves the cart API. Owner resolution trusts X-User-Id, so the
// service must only be reachable through the gateway.
func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := kit.NewRouter(deps)
	r.Mount("/", s.Routes())
	return r
}
