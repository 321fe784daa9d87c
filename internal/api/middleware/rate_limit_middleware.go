package middleware

import (
	"net"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

// KeyFunc 決定限流對象
type KeyFunc func(r *http.Request) string

// ByUser 未登入時以來源 IP 計算
func ByUser(r *http.Request) string {
	if caller := util.GetCaller(r.Context()); caller != nil {
		return "user:" + caller.UserID.String()
	}
	return ByIP(r)
}

// ByIP 需搭配 chi 的 RealIP middleware
func ByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func NewRateLimitMiddleware(limiter ratelimit.ILimiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), key(r)) {
				response.ErrorJSON(w, r, apperr.New(apperr.TooManyRequestsCode, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
