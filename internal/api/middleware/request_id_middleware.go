package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/google/uuid"
)

// RequestIdMiddleware 沿用上游帶入的 X-Request-ID，沒有才產生
func RequestIdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(constants.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(constants.HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(util.WithRequestID(r.Context(), requestID)))
	})
}
