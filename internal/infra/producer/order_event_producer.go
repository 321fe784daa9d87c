package producer

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// IOrderEventPublisher 訂單生命週期事件
type IOrderEventPublisher interface {
	Publish(ctx context.Context, evts ...event.Event) error
	Close() error
}

type OrderEventProducer struct {
	writer        IMessageWriter
	topic         string
	retryAttempts int
	closed        atomic.Bool
}

func NewOrderEventProducer(writer IMessageWriter, topic string, retryAttempts int) *OrderEventProducer {
	return &OrderEventProducer{
		writer:        writer,
		topic:         topic,
		retryAttempts: retryAttempts,
	}
}

// Publish 同步發送，臨時錯誤會重試 retryAttempts 次
func (p *OrderEventProducer) Publish(ctx context.Context, evts ...event.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(evts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		msg, err := p.convertToMessage(evt)
		if err != nil {
			return NewKafkaError("Publish", p.topic, err)
		}
		msgs = append(msgs, msg)
	}

	var err error
	for attempt := 0; attempt <= p.retryAttempts; attempt++ {
		if ctx.Err() != nil {
			return NewKafkaError("Publish", p.topic, ctx.Err())
		}
		err = p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			return nil
		}
		if !IsTemporaryError(err) {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Str("topic", p.topic).Msg("retry publishing order events")
	}

	return NewKafkaError("Publish", p.topic, err)
}

// key 使用 aggregate id，同一張訂單的事件保持順序
func (p *OrderEventProducer) convertToMessage(evt event.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(evt.GetAggregateID()),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   HeaderEventType,
				Value: []byte(evt.Type()),
			},
			{
				Key:   HeaderEventID,
				Value: []byte(evt.GetID()),
			},
		},
	}, nil
}

func (p *OrderEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

// NoopPublisher 未設定 kafka 時使用
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, evts ...event.Event) error {
	for _, evt := range evts {
		log.Debug().Str("event_type", string(evt.Type())).Str("aggregate_id", evt.GetAggregateID()).Msg("order event dropped, no publisher configured")
	}
	return nil
}

func (NoopPublisher) Close() error { return nil }

var (
	_ IOrderEventPublisher = (*OrderEventProducer)(nil)
	_ IOrderEventPublisher = NoopPublisher{}
)
