package catalog

import (
	"net/http"

	"DeliveryStore/pkg/kit"
)

type HTTPDeps = kit.HTTPDeps

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := kit.NewRouter(deps)
	r.Mount("/", s.Routes())
	return r
}
