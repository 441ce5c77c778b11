package clog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ChiOption configures SlogChiMiddleware.
type ChiOption func(*chiConfig)

type chiConfig struct {
	skip        func(r *http.Request) bool
	routeParams map[string]string
}

// WithChiSkip suppresses the access log line for requests skip matches.
// Attributes are still collected for logs written by the handler.
func WithChiSkip(skip func(r *http.Request) bool) ChiOption {
	return func(cfg *chiConfig) { cfg.skip = skip }
}

// WithChiRouteParams copies matched URL params into the access log, renamed
// from param name to attribute key (e.g. "jobID" to "job_id").
func WithChiRouteParams(keys map[string]string) ChiOption {
	return func(cfg *chiConfig) { cfg.routeParams = keys }
}

// SlogChiMiddleware writes one log line per request at a level derived from
// the response status. It must be mounted inside a chi router so the route
// context is available once the request has been routed.
func SlogChiMiddleware(opts ...ChiOption) func(http.Handler) http.Handler {
	var cfg chiConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := ContextWithSlog(r.Context())
			AddAttributes(ctx, map[string]any{
				"proto":  r.Proto,
				"method": r.Method,
				"path":   r.URL.Path,
			})

			next.ServeHTTP(ww, r.WithContext(ctx))

			if cfg.skip != nil && cfg.skip(r) {
				return
			}
			if rctx := chi.RouteContext(ctx); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					AddAttribute(ctx, "route", pattern)
				}
				for param, key := range cfg.routeParams {
					if v := rctx.URLParam(param); v != "" {
						AddAttribute(ctx, key, v)
					}
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			AddAttributes(ctx, map[string]any{
				"status":        status,
				"bytes_written": ww.BytesWritten(),
				"duration":      time.Since(start),
			})
			slog.Log(ctx, HTTPStatusToLevel(status).SlogLevel(), http.StatusText(status))
		})
	}
}
