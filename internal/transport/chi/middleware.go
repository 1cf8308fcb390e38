package chi

import (
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	logpkg "github.com/cortexa-labs/neurapipe/internal/logger"
)

// RequestLogger injects a request-scoped logger carrying the request ID into
// the context. Must be mounted after chi's RequestID middleware.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := base
			if reqID := chiMiddleware.GetReqID(r.Context()); reqID != "" {
				reqLogger = base.With(zap.String("request_id", reqID))
			}
			next.ServeHTTP(w, r.WithContext(logpkg.WithContext(r.Context(), reqLogger)))
		})
	}
}
