package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/google/uuid"
)

type CartHandler struct {
	cartService service.ICartService
}

func NewCartHandler(cartService service.ICartService) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	lines, err := h.cartService.ListLines(r.Context(), c.UserID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, dto.NewCartResponse(lines))
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	var req dto.AddCartItemDTO
	if err := decodeJSON(w, r, &req); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		response.ErrorJSON(w, r, apperr.Validation("invalid variant_id"))
		return
	}

	line, err := h.cartService.AddOrMerge(r.Context(), c.UserID, variantID, req.Quantity)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, line)
}

func (h *CartHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, 1)
}

func (h *CartHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, -1)
}

func (h *CartHandler) adjust(w http.ResponseWriter, r *http.Request, delta int) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	lineID, err := pathUUID(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	line, err := h.cartService.AdjustQuantity(r.Context(), c.UserID, lineID, delta)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, dto.AdjustCartResponse{Item: line, Removed: line == nil})
}

func (h *CartHandler) ToggleChecked(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	lineID, err := pathUUID(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	line, err := h.cartService.ToggleChecked(r.Context(), c.UserID, lineID)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, line)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	lineID, err := pathUUID(r, "id")
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}

	if err := h.cartService.Remove(r.Context(), c.UserID, lineID); err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, map[string]string{"id": lineID.String()})
}
