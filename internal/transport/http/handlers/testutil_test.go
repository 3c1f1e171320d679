package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// chiRouteContext injects a URL parameter the way the router would when
// the handler is exercised without a full mux.
func chiRouteContext(r *http.Request, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
}
