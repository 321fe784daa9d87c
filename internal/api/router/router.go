package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	m "github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/infra/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Limiters 結帳依使用者限流
// 金流通知不限流，簽章錯誤以外的回應都必須是 2xx，否則金流端會不斷重送
type Limiters struct {
	Checkout ratelimit.ILimiter
}

func SetupRouter(server *api.Server, limiters Limiters, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.AuthPayloadMiddleware)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// 購物車
		r.Route("/cart", func(r chi.Router) {
			r.Use(m.AuthMiddleware)
			r.Get("/", server.CartHandler.List)
			r.Post("/add", server.CartHandler.Add)
			r.Patch("/{id}/increase", server.CartHandler.Increase)
			r.Patch("/{id}/decrease", server.CartHandler.Decrease)
			r.Patch("/{id}/toggle-checked", server.CartHandler.ToggleChecked)
			r.Delete("/{id}", server.CartHandler.Remove)
		})

		// 訂單
		r.Route("/orders", func(r chi.Router) {
			r.Use(m.AuthMiddleware)

			// admin 路由要在 /{id} 之前註冊
			r.Route("/admin", func(r chi.Router) {
				r.Use(m.AdminMiddleware)
				r.Get("/all", server.AdminOrderHandler.List)
				r.Get("/{id}", server.AdminOrderHandler.Get)
				r.Patch("/{id}/status", server.AdminOrderHandler.UpdateStatus)
			})

			r.Get("/review", server.OrderHandler.Review)
			r.With(withLimiter(limiters.Checkout, m.ByUser)).Post("/checkout", server.OrderHandler.Checkout)
			r.Get("/", server.OrderHandler.List)
			r.Get("/{id}", server.OrderHandler.Get)
			r.Patch("/{id}/pay", server.OrderHandler.Pay)
			r.Patch("/{id}/cancel", server.OrderHandler.Cancel)
		})

		// 金流
		r.Route("/midtrans", func(r chi.Router) {
			// 金流端呼叫，靠簽章驗證
			r.Post("/notification", server.MidtransHandler.Notification)
			r.Get("/client-key", server.MidtransHandler.ClientKey)

			r.Group(func(r chi.Router) {
				r.Use(m.AuthMiddleware)
				r.Get("/status/{order_number}", server.MidtransHandler.Status)
				r.With(m.AdminMiddleware).Post("/cancel/{order_number}", server.MidtransHandler.Cancel)
			})
		})
	})

	return r
}

// withLimiter 未設定 limiter 時不限流
func withLimiter(limiter ratelimit.ILimiter, key m.KeyFunc) func(next http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return m.NewRateLimitMiddleware(limiter, key)
}
