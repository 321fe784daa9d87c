package redis_client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	_instances = sync.Map{}
)

// GetRedisClient 同一個 address 共用同一個 client
func GetRedisClient(address string, options ...Option) (*redis.Client, error) {
	client, ok := _instances.Load(address)
	if !ok {
		var err error
		client, err = createRedisClient(address, options...)
		if err != nil {
			return nil, err
		}
		client, _ = _instances.LoadOrStore(address, client)
	}

	return client.(*redis.Client), nil
}

func createRedisClient(address string, options ...Option) (*redis.Client, error) {
	if address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	opts := &redis.Options{
		Addr:        address,
		DialTimeout: 5 * time.Second,
	}

	for _, option := range options {
		option(opts)
	}

	return redis.NewClient(opts), nil
}

// CloseRedisClient 關閉並移出快取，之後同一個 address 會重新建立 client
func CloseRedisClient(address string) error {
	client, ok := _instances.LoadAndDelete(address)
	if !ok {
		return nil
	}
	return client.(*redis.Client).Close()
}

// Ping 啟動時檢查連線
func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	return nil
}

type Option func(*redis.Options)

func WithPassword(password string) Option {
	return func(o *redis.Options) {
		o.Password = password
	}
}

func WithDB(db int) Option {
	return func(o *redis.Options) {
		o.DB = db
	}
}

