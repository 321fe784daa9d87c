package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/api/router"
	"github.com/RoyceAzure/lab/storefront/internal/appcontext"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/rs/zerolog/log"
)

func main() {
	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init application")
	}

	// 初始化 handler
	server := api.NewServer(
		handler.NewCartHandler(app.CartService),
		handler.NewOrderHandler(app.OrderService, app.CheckoutService),
		handler.NewAdminOrderHandler(app.OrderService),
		handler.NewMidtransHandler(app.NotificationService, app.PaymentService),
	)

	// 設置路由
	r := router.SetupRouter(server, app.Limiters, app.Logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutdownCompleted := make(chan struct{}, 1)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// 先停止接收請求，進行中的結帳與通知處理完才關閉連線
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("application shutdown error")
		}
		shutdownCompleted <- struct{}{}
	}()

	log.Info().Str("addr", srv.Addr).Msg("Server starting")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	<-shutdownCompleted
	log.Info().Msg("closed completed")
}
