package midtrans

import "github.com/RoyceAzure/lab/storefront/internal/domain/model"

// 金流端 transaction_status
const (
	StatusCapture       = "capture"
	StatusSettlement    = "settlement"
	StatusPending       = "pending"
	StatusDeny          = "deny"
	StatusCancel        = "cancel"
	StatusExpire        = "expire"
	StatusRefund        = "refund"
	StatusPartialRefund = "partial_refund"

	FraudAccept    = "accept"
	FraudChallenge = "challenge"
)

var statusMap = map[string]model.OrderState{
	StatusSettlement:    {Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusPaid},
	StatusPending:       {Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusUnpaid},
	StatusDeny:          {Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusFailed},
	StatusCancel:        {Status: model.OrderStatusCancelled, PaymentStatus: model.PaymentStatusFailed},
	StatusExpire:        {Status: model.OrderStatusCancelled, PaymentStatus: model.PaymentStatusFailed},
	StatusRefund:        {Status: model.OrderStatusCancelled, PaymentStatus: model.PaymentStatusRefunded},
	StatusPartialRefund: {Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusRefunded},
}

// MapStatus 金流狀態對應到訂單狀態
// 未知狀態一律視為 (pending, unpaid)
func MapStatus(transactionStatus, fraudStatus string) model.OrderState {
	if transactionStatus == StatusCapture && fraudStatus == FraudAccept {
		return model.OrderState{Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusPaid}
	}
	if s, ok := statusMap[transactionStatus]; ok {
		return s
	}
	return model.StateCreated
}

// ClassifyEvent 金流狀態對應到狀態機事件，與 MapStatus 的目標狀態一致
func ClassifyEvent(transactionStatus, fraudStatus string) model.OrderEvent {
	switch transactionStatus {
	case StatusCapture:
		if fraudStatus == FraudAccept {
			return model.EventGatewaySettlement
		}
		return model.EventGatewayPending
	case StatusSettlement:
		return model.EventGatewaySettlement
	case StatusDeny:
		return model.EventGatewayDeny
	case StatusCancel, StatusExpire:
		return model.EventGatewayExpire
	case StatusRefund:
		return model.EventGatewayRefund
	case StatusPartialRefund:
		return model.EventGatewayPartialRefund
	default:
		return model.EventGatewayPending
	}
}
