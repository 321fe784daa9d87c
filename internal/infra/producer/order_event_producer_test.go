package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	mock_producer "github.com/RoyceAzure/lab/storefront/internal/infra/producer/mock"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testOrder() *model.Order {
	return &model.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20260301-0042",
		UserID:        uuid.New(),
		TotalAmount:   decimal.NewFromInt(65000),
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
		Lines:         []model.OrderLine{{SKU: "TS-M", Quantity: 1, Price: decimal.NewFromInt(50000), Subtotal: decimal.NewFromInt(50000)}},
	}
}

func TestOrderEventProducer_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockIMessageWriter(ctrl)
	p := NewOrderEventProducer(writer, "order-events", 2)

	order := testOrder()
	evt := event.NewOrderCreatedEvent(order, time.Now())

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msgs ...kafka.Message) error {
			require.Len(t, msgs, 1)
			require.Equal(t, order.OrderNumber, string(msgs[0].Key))
			require.Equal(t, HeaderEventType, msgs[0].Headers[0].Key)
			require.Equal(t, string(event.OrderCreatedEventName), string(msgs[0].Headers[0].Value))

			var decoded event.OrderCreatedEvent
			require.NoError(t, json.Unmarshal(msgs[0].Value, &decoded))
			require.Equal(t, order.OrderNumber, decoded.OrderNumber)
			require.Len(t, decoded.Items, 1)
			return nil
		})

	require.NoError(t, p.Publish(context.Background(), evt))
}

func TestOrderEventProducer_RetryTemporary(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockIMessageWriter(ctrl)
	p := NewOrderEventProducer(writer, "order-events", 2)

	gomock.InOrder(
		writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(kafka.LeaderNotAvailable),
		writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil),
	)

	require.NoError(t, p.Publish(context.Background(), event.NewOrderCreatedEvent(testOrder(), time.Now())))
}

func TestOrderEventProducer_FatalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockIMessageWriter(ctrl)
	p := NewOrderEventProducer(writer, "order-events", 3)

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(kafka.TopicAuthorizationFailed).Times(1)

	err := p.Publish(context.Background(), event.NewOrderCreatedEvent(testOrder(), time.Now()))
	var kafkaErr *KafkaError
	require.True(t, errors.As(err, &kafkaErr))
	require.Equal(t, "order-events", kafkaErr.Topic)
	require.ErrorIs(t, err, kafka.TopicAuthorizationFailed)
}

func TestOrderEventProducer_Close(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock_producer.NewMockIMessageWriter(ctrl)
	p := NewOrderEventProducer(writer, "order-events", 0)

	writer.EXPECT().Close().Return(nil).Times(1)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), event.NewOrderCreatedEvent(testOrder(), time.Now()))
	require.ErrorIs(t, err, ErrProducerClosed)
}

func TestNewOrderTransitionEvent_Type(t *testing.T) {
	order := testOrder()
	cases := []struct {
		from, to model.OrderState
		want     event.EventType
	}{
		{model.StateCreated, model.OrderState{Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusPaid}, event.OrderPaidEventName},
		{model.StateCreated, model.OrderState{Status: model.OrderStatusCancelled, PaymentStatus: model.PaymentStatusFailed}, event.OrderCancelledEventName},
		{model.OrderState{Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusPaid}, model.OrderState{Status: model.OrderStatusCancelled, PaymentStatus: model.PaymentStatusRefunded}, event.OrderRefundedEventName},
		{model.StateCreated, model.OrderState{Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusFailed}, event.OrderStatusChangedEventName},
	}
	for _, c := range cases {
		evt := event.NewOrderTransitionEvent(order, model.EventAdminOverride, model.Transition{From: c.from, To: c.to}, time.Now())
		require.Equal(t, c.want, evt.Type(), "%s -> %s", c.from, c.to)
	}
}

func TestConfigValidate(t *testing.T) {
	_, err := NewKafkaWriter(&Config{Topic: "order-events"})
	require.ErrorIs(t, err, ErrInvalidateParameter)

	w, err := NewKafkaWriter(&Config{Brokers: []string{"localhost:9092"}, Topic: "order-events", RequiredAcks: -1})
	require.NoError(t, err)
	require.Equal(t, "order-events", w.Topic)
}
