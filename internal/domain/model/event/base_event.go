package event

import "time"

type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	CreatedAt   time.Time `json:"createdAt"`
	EventType   EventType `json:"eventType"`
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

func (e *BaseEvent) GetAggregateID() string {
	return e.AggregateID
}

type EventType string

const (
	OrderCreatedEventName       EventType = "OrderCreated"
	OrderPaidEventName          EventType = "OrderPaid"
	OrderCancelledEventName     EventType = "OrderCancelled"
	OrderRefundedEventName      EventType = "OrderRefunded"
	OrderStatusChangedEventName EventType = "OrderStatusChanged"
)

type Event interface {
	Type() EventType
	GetID() string
	GetAggregateID() string
}
