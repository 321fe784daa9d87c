package handler

import (
	"context"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService    service.IOrderService
	checkoutService service.ICheckoutService
}

func NewOrderHandler(orderService service.IOrderService, checkoutService service.ICheckoutService) *OrderHandler {
	if orderService == nil || checkoutService == nil {
		panic("orderService and checkoutService cannot be nil")
	}
	return &OrderHandler{orderService: orderService, checkoutService: checkoutService}
}

func (h *OrderHandler) Review(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	review, err := h.checkoutService.Review(r.Context(), c.UserID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, review)
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.CheckoutDTO
	if err := decodeJSON(w, r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	res, err := h.checkoutService.Checkout(r.Context(), service.CheckoutInput{
		Customer:        c.Customer(),
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
		ShippingCost:    req.ShippingCost,
		PaymentMethod:   req.PaymentMethod,
		Note:            req.Note,
	})
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.CreatedJSON(w, res)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	orders, err := h.orderService.ListMyOrders(r.Context(), c)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	orderID, err := pathUUID(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	order, err := h.orderService.GetMyOrder(r.Context(), c, orderID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, order)
}

func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.Pay)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.Cancel)
}

type ownedTransition func(ctx context.Context, caller service.Caller, orderID uuid.UUID) (*model.Order, error)

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, apply ownedTransition) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	orderID, err := pathUUID(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	order, err := apply(r.Context(), c, orderID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, order)
}
