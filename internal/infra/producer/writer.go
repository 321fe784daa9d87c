package producer

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// IMessageWriter *kafka.Writer 的最小介面
type IMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers       []string
	Topic         string
	BatchTimeout  time.Duration
	RequiredAcks  int
	RetryAttempts int
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%w: brokers is empty", ErrInvalidateParameter)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidateParameter)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts must be >= 0", ErrInvalidateParameter)
	}
	return nil
}

// NewKafkaWriter 同步寫入，WriteMessages 會 block 到 broker ack
func NewKafkaWriter(cfg *Config) (*kafka.Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // 同一張訂單的事件進同一個 partition，保持順序
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Async:        false,
		MaxAttempts:  cfg.RetryAttempts + 1,

		// 重連機制設置
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},

		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Str("component", "kafka_writer").Msgf(msg, args...)
		}),

		Compression: kafka.Snappy,
	}, nil
}
