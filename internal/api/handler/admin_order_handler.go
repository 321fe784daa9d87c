package handler

import (
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type AdminOrderHandler struct {
	orderService service.IOrderService
}

func NewAdminOrderHandler(orderService service.IOrderService) *AdminOrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &AdminOrderHandler{orderService: orderService}
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be a number", name)
	}
	return n, nil
}

// List GET /orders/admin/all?status=&payment_status=&page=&limit=&sort=
func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	q := r.URL.Query()
	res, err := h.orderService.AdminListOrders(r.Context(), service.AdminOrderQuery{
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
		Page:          page,
		Limit:         limit,
		Sort:          q.Get("sort"),
	})
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, res)
}

func (h *AdminOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	order, err := h.orderService.AdminGetOrder(r.Context(), orderID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, order)
}

func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.UpdateOrderStatusDTO
	if err := decodeJSON(w, r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	order, err := h.orderService.AdminUpdateStatus(r.Context(), orderID, req.Status, req.PaymentStatus)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, order)
}
