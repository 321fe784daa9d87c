package event

import (
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderCreatedEvent struct {
	BaseEvent
	OrderNumber   string           `json:"order_number"`
	UserID        uuid.UUID        `json:"user_id"`
	Items         []OrderItemData  `json:"items"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	ShippingCost  decimal.Decimal  `json:"shipping_cost"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	PaymentMethod string           `json:"payment_method"`
	ToState       model.OrderState `json:"to_state"`
}

func (e *OrderCreatedEvent) Type() EventType {
	return OrderCreatedEventName
}

type OrderItemData struct {
	VariantID uuid.UUID       `json:"variant_id"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderTransitionEvent 訂單狀態異動
// EventType 依目標狀態決定 (paid / cancelled / refunded / 其他)
type OrderTransitionEvent struct {
	BaseEvent
	OrderNumber string           `json:"order_number"`
	UserID      uuid.UUID        `json:"user_id"`
	Trigger     model.OrderEvent `json:"trigger"`
	FromState   model.OrderState `json:"from_state"`
	ToState     model.OrderState `json:"to_state"`
	PaidAt      *time.Time       `json:"paid_at,omitempty"`
}

func (e *OrderTransitionEvent) Type() EventType {
	return e.EventType
}

func NewOrderCreatedEvent(order *model.Order, now time.Time) *OrderCreatedEvent {
	items := make([]OrderItemData, 0, len(order.Lines))
	for _, l := range order.Lines {
		items = append(items, OrderItemData{
			VariantID: l.VariantID,
			SKU:       l.SKU,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Subtotal:  l.Subtotal,
		})
	}
	return &OrderCreatedEvent{
		BaseEvent: BaseEvent{
			EventID:     uuid.NewString(),
			AggregateID: order.OrderNumber,
			CreatedAt:   now,
			EventType:   OrderCreatedEventName,
		},
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Items:         items,
		Subtotal:      order.Subtotal,
		ShippingCost:  order.ShippingCost,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		ToState:       order.State(),
	}
}

func NewOrderTransitionEvent(order *model.Order, trigger model.OrderEvent, t model.Transition, now time.Time) *OrderTransitionEvent {
	evtType := OrderStatusChangedEventName
	switch {
	case t.To.PaymentStatus == model.PaymentStatusRefunded && t.From.PaymentStatus != model.PaymentStatusRefunded:
		evtType = OrderRefundedEventName
	case t.To.IsCancelled() && !t.From.IsCancelled():
		evtType = OrderCancelledEventName
	case t.To.PaymentStatus == model.PaymentStatusPaid && t.From.PaymentStatus != model.PaymentStatusPaid:
		evtType = OrderPaidEventName
	}
	return &OrderTransitionEvent{
		BaseEvent: BaseEvent{
			EventID:     uuid.NewString(),
			AggregateID: order.OrderNumber,
			CreatedAt:   now,
			EventType:   evtType,
		},
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Trigger:     trigger,
		FromState:   t.From,
		ToState:     t.To,
		PaidAt:      order.PaidAt,
	}
}
