// Package api provides the operational HTTP surface of the share engine:
// health probes, publish status lookups, and schedule computation.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medibook/share-engine/internal/status"
	"github.com/medibook/share-engine/pkg/logger"
)

// ServerOption configures the HTTP router built by NewServer.
type ServerOption func(*chi.Mux)

// WithMiddlewares installs the given middleware chain on the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(r *chi.Mux) {
		r.Use(mw...)
	}
}

// NewServer builds the router: health probes at the root, the engine API
// under /v1.
func NewServer(recorder status.Recorder, opts ...ServerOption) *chi.Mux {
	r := chi.NewRouter()
	for _, opt := range opts {
		opt(r)
	}

	r.Mount("/", HealthRouter())
	r.Mount("/v1", Router(recorder))

	return r
}

// LoggingMiddleware logs each request with its status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.Debugf("HTTP %s %s %d %s %s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}
