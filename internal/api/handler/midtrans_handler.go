package handler

import (
	"io"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type MidtransHandler struct {
	notificationService service.INotificationService
	paymentService      service.IPaymentService
}

func NewMidtransHandler(notificationService service.INotificationService, paymentService service.IPaymentService) *MidtransHandler {
	if notificationService == nil || paymentService == nil {
		panic("notificationService and paymentService cannot be nil")
	}
	return &MidtransHandler{notificationService: notificationService, paymentService: paymentService}
}

// Notification 由金流端呼叫，不經過使用者認證，真實性只靠簽章
// 回應格式固定為金流端預期的 {"message"} / {"error"}
func (h *MidtransHandler) Notification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Warn().Err(err).Msg("failed to read payment notification body")
		response.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	ack := h.notificationService.HandleSafely(r.Context(), body)
	response.WriteJSON(w, ack.HTTPStatus, ack.Body)
}

func (h *MidtransHandler) Status(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	view, err := h.paymentService.TransactionStatus(r.Context(), c, chi.URLParam(r, "order_number"))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, view)
}

func (h *MidtransHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.paymentService.AdminCancel(r.Context(), chi.URLParam(r, "order_number"))
	if err != nil {
		response.ErrorJSON(w, r, err)
		return
	}
	response.SuccessJSON(w, order)
}

func (h *MidtransHandler) ClientKey(w http.ResponseWriter, r *http.Request) {
	response.SuccessJSON(w, h.paymentService.ClientKey())
}
