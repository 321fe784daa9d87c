package redis_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/redis/go-redis/v9"
)

// 流水號保留兩天，跨日後舊 key 自然過期
const orderSeqTTL = 48 * time.Hour

type OrderNumberRepo struct {
	client *redis.Client
}

func NewOrderNumberRepo(client *redis.Client) *OrderNumberRepo {
	return &OrderNumberRepo{client: client}
}

func (r *OrderNumberRepo) GetOrderSeqKey(day string) string {
	return fmt.Sprintf("order:seq:%s", day)
}

/*
使用redis lua script 來實現原子性
1. INCR 當日 key
2. 第一次建立時設定過期時間
*/
func (r *OrderNumberRepo) NextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	const incrScript = `
    local seq = redis.call('INCR', KEYS[1])
    if seq == 1 then
        redis.call('EXPIRE', KEYS[1], ARGV[1])
    end
    return seq
    `

	day := repository.OrderNumberDay(now)
	result, err := r.client.Eval(ctx, incrScript, []string{r.GetOrderSeqKey(day)}, int64(orderSeqTTL/time.Second)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}

	seq, ok := result.(int64)
	if !ok {
		return "", fmt.Errorf("unexpected result type: %T", result)
	}
	return repository.FormatOrderNumber(day, seq), nil
}

var _ repository.IOrderNumberAllocator = (*OrderNumberRepo)(nil)
