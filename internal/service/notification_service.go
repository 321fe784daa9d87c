package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/gateway/midtrans"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NotificationReceipt 單次通知的處理結果
type NotificationReceipt struct {
	PaymentEventID uuid.UUID
	OrderNumber    string
	TransactionID  string
	Trigger        model.OrderEvent
	Transition     model.Transition
	// Duplicate 同一筆 (transaction_id, transaction_status) 之前已收過
	Duplicate bool
	// Stale 事件與訂單目前狀態衝突 (例如已取消後才收到付款)，只紀錄不套用
	Stale bool
	Order *model.Order
}

// NotificationAck 回給金流的內容；除了簽章錯誤、格式錯誤與訂單不存在之外一律是 200
type NotificationAck struct {
	HTTPStatus int
	Body       map[string]string
}

type INotificationService interface {
	Handle(ctx context.Context, body []byte) (*NotificationReceipt, error)
	HandleSafely(ctx context.Context, body []byte) NotificationAck
}

type NotificationService struct {
	orderRepo    repository.IOrderRepository
	eventRepo    repository.IPaymentEventRepository
	gateway      IPaymentGateway
	transitioner *OrderTransitioner
	now          clock
}

func NewNotificationService(orderRepo repository.IOrderRepository, eventRepo repository.IPaymentEventRepository, gateway IPaymentGateway, transitioner *OrderTransitioner) *NotificationService {
	return &NotificationService{
		orderRepo:    orderRepo,
		eventRepo:    eventRepo,
		gateway:      gateway,
		transitioner: transitioner,
		now:          time.Now,
	}
}

func paymentInfoOf(n *model.Notification) repository.PaymentInfo {
	return repository.PaymentInfo{
		RemoteTransactionID:     n.TransactionID,
		RemoteTransactionStatus: n.TransactionStatus,
		PaymentType:             n.PaymentType,
		VANumbers:               n.VANumbers,
	}
}

// Handle 一般的可失敗流程，錯誤由 HandleSafely 決定如何回覆
/*
	1. 解析並驗證簽章，失敗不寫入任何資料
	2. 找出訂單
	3. 寫入稽核紀錄 (失敗仍繼續處理，最後回傳錯誤)
	4. 依訂單目前狀態決定轉換，副作用只由贏得 compare-and-swap 的請求執行
*/
func (s *NotificationService) Handle(ctx context.Context, body []byte) (*NotificationReceipt, error) {
	n, err := model.ParseNotification(body)
	if err != nil {
		return nil, apperr.Validation("malformed notification payload")
	}
	if n.OrderID == "" {
		return nil, apperr.Validation("order_id is required")
	}
	receipt := &NotificationReceipt{OrderNumber: n.OrderID, TransactionID: n.TransactionID}

	if !s.gateway.VerifySignature(n) {
		return receipt, apperr.New(apperr.GatewayAuthFailureCode, "invalid signature")
	}

	order, err := s.orderRepo.GetOrderByNumber(ctx, n.OrderID)
	if err != nil {
		return receipt, notFoundOr(err, "order not found")
	}

	if n.TransactionID != "" {
		prior, err := s.eventRepo.CountPaymentEvents(ctx, n.TransactionID, n.TransactionStatus)
		if err != nil {
			log.Warn().Err(err).Str("order_number", n.OrderID).Msg("failed to count prior payment events")
		}
		receipt.Duplicate = prior > 0
	}

	ev := model.NewPaymentEvent(order, n, true, s.now())
	receipt.PaymentEventID = ev.ID
	var appendErr error
	if err := s.eventRepo.AppendPaymentEvent(ctx, ev); err != nil {
		appendErr = fmt.Errorf("append payment event: %w", err)
	}

	if receipt.Duplicate {
		log.Info().
			Str("order_number", n.OrderID).
			Str("transaction_id", n.TransactionID).
			Str("transaction_status", n.TransactionStatus).
			Msg("duplicate payment notification")
	}

	trigger := midtrans.ClassifyEvent(n.TransactionStatus, n.FraudStatus)
	receipt.Trigger = trigger
	info := paymentInfoOf(n)
	decide := func(from model.OrderState) (model.Transition, error) {
		return model.NextState(from, trigger)
	}

	updated, tr, err := s.transitioner.Apply(ctx, order, trigger, decide, info)
	receipt.Transition, receipt.Order = tr, updated
	switch {
	case errors.Is(err, model.ErrInvalidTransition):
		receipt.Stale = true
		log.Warn().
			Str("order_number", n.OrderID).
			Str("transaction_status", n.TransactionStatus).
			Str("state", updated.State().String()).
			Msg("notification does not apply to current order state")
		if err := s.orderRepo.UpdatePaymentInfo(ctx, updated.ID, info); err != nil {
			return receipt, errors.Join(appendErr, fmt.Errorf("update payment info: %w", err))
		}
	case err != nil:
		return receipt, errors.Join(appendErr, err)
	case tr.Noop:
		if err := s.orderRepo.UpdatePaymentInfo(ctx, updated.ID, info); err != nil {
			return receipt, errors.Join(appendErr, fmt.Errorf("update payment info: %w", err))
		}
	}

	return receipt, appendErr
}

// HandleSafely 對金流端永遠不丟出錯誤，避免重送風暴
// 只有簽章錯誤、格式錯誤、訂單不存在會以非 200 回覆
func (s *NotificationService) HandleSafely(ctx context.Context, body []byte) (ack NotificationAck) {
	var receipt *NotificationReceipt
	defer func() {
		if r := recover(); r != nil {
			l := log.Error().Interface("panic", r)
			if receipt != nil {
				l = l.Str("order_number", receipt.OrderNumber)
			}
			l.Msg("panic while handling payment notification")
			ack = NotificationAck{HTTPStatus: http.StatusOK, Body: map[string]string{"message": "Error logged", "error": "internal error"}}
		}
	}()

	receipt, err := s.Handle(ctx, body)
	if err == nil {
		log.Info().
			Str("payment_event_id", receipt.PaymentEventID.String()).
			Str("order_number", receipt.OrderNumber).
			Str("transaction_id", receipt.TransactionID).
			Str("trigger", string(receipt.Trigger)).
			Bool("duplicate", receipt.Duplicate).
			Bool("stale", receipt.Stale).
			Msg("payment notification handled")
		return NotificationAck{HTTPStatus: http.StatusOK, Body: map[string]string{"message": "OK"}}
	}

	l := log.Error().Err(err)
	if receipt != nil {
		l = l.Str("order_number", receipt.OrderNumber).Str("transaction_id", receipt.TransactionID)
		if receipt.PaymentEventID != uuid.Nil {
			l = l.Str("payment_event_id", receipt.PaymentEventID.String())
		}
	}

	switch apperr.CodeOf(err) {
	case apperr.ValidationCode:
		l.Msg("rejected malformed payment notification")
		return NotificationAck{HTTPStatus: http.StatusBadRequest, Body: map[string]string{"error": apperr.As(err).Message}}
	case apperr.GatewayAuthFailureCode:
		l.Msg("rejected payment notification with invalid signature")
		return NotificationAck{HTTPStatus: http.StatusForbidden, Body: map[string]string{"error": "Invalid signature"}}
	case apperr.NotFoundCode:
		l.Msg("payment notification for unknown order")
		return NotificationAck{HTTPStatus: http.StatusNotFound, Body: map[string]string{"error": "Order not found"}}
	}

	l.Msg("payment notification failed, error swallowed")
	return NotificationAck{HTTPStatus: http.StatusOK, Body: map[string]string{"message": "Error logged", "error": err.Error()}}
}

var _ INotificationService = (*NotificationService)(nil)
