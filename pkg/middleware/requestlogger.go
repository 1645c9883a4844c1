package middleware

import (
	"log/slog"
	"net/http"

	"github.com/bmanav26/E-Commerce/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with request_id,
// user_id, trace_id, and span_id and stores it in context via
// logger.NewContext. Downstream handlers retrieve it with
// logger.FromContext(ctx).
//
// Mount it after RequestLogging (which sets request_id) and Tracing (which
// sets the span context). The user ID is only available once the auth gate
// has run, so handlers behind authentication re-enrich via logger.WithUserID.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
