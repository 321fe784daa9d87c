package api

import "github.com/RoyceAzure/lab/storefront/internal/api/handler"

type Server struct {
	CartHandler       *handler.CartHandler
	OrderHandler      *handler.OrderHandler
	AdminOrderHandler *handler.AdminOrderHandler
	MidtransHandler   *handler.MidtransHandler
}

func NewServer(
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	adminOrderHandler *handler.AdminOrderHandler,
	midtransHandler *handler.MidtransHandler,
) *Server {
	return &Server{
		CartHandler:       cartHandler,
		OrderHandler:      orderHandler,
		AdminOrderHandler: adminOrderHandler,
		MidtransHandler:   midtransHandler,
	}
}
