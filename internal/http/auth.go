package httpapi

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

const apiKeyHeader = "X-API-KEY"

// APIKeyMiddleware 校验 X-API-KEY；/healthz 不校验
func APIKeyMiddleware(apiKey string, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		got := r.Header.Get(apiKeyHeader)
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			logger.Info("Rejected request with invalid API key",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeJSON(w, http.StatusUnauthorized, Fail("invalid api key"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
