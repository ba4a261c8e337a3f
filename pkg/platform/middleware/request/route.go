package request

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func chiRouteContext(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
