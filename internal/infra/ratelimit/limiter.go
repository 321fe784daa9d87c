package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type LimiterConfig struct {
	Prefix   string
	Capacity int
	RatePS   int // tokens/秒
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Prefix:   "global",
		Capacity: 100,
		RatePS:   1,
	}
}

func (c LimiterConfig) withDefaults() LimiterConfig {
	d := GetDefaultLimiterConfig()
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	if c.Capacity <= 0 {
		c.Capacity = d.Capacity
	}
	if c.RatePS <= 0 {
		c.RatePS = d.RatePS
	}
	return c
}

// ILimiter key 為限流對象，例如 user id 或來源 IP
type ILimiter interface {
	Allow(ctx context.Context, key string) bool
}

// RedisClient 介面定義
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

const tokenBucketScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	-- key 不存在時以滿桶初始化
	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	local elapsedSeconds = (now - lastRefill) / 1000
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tostring(currentTokens), 'last_refill', tostring(now))
	-- 桶補滿所需時間後自動過期
	redis.call('EXPIRE', key, math.ceil(capacity / rate) + 1)
	return allowed
`

// RsBucketToken 多個 instance 共用的 redis token bucket
type RsBucketToken struct {
	LimiterConfig
	client RedisClient
	now    func() time.Time
}

func NewRsBucketToken(client RedisClient, config *LimiterConfig) *RsBucketToken {
	rb := &RsBucketToken{
		client: client,
		now:    time.Now,
	}
	if config != nil {
		rb.LimiterConfig = config.withDefaults()
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}
	return rb
}

func (r *RsBucketToken) bucketKey(key string) string {
	return "ratelimit:" + r.Prefix + ":" + key
}

// Allow redis 無法使用時放行，不讓限流元件擋住結帳與金流通知
func (r *RsBucketToken) Allow(ctx context.Context, key string) bool {
	result, err := r.client.Eval(
		ctx,
		tokenBucketScript,
		[]string{r.bucketKey(key)},
		r.Capacity,
		r.RatePS,
		r.now().UnixMilli(),
	).Int64()
	if err != nil {
		log.Warn().Err(err).Str("limiter", r.Prefix).Msg("rate limiter unavailable, allowing request")
		return true
	}
	return result == 1
}

type localBucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucket 單機版，沒有 redis 時使用
// 補充在 Allow 時依經過時間計算，不需要背景 goroutine
type TokenBucket struct {
	LimiterConfig
	mu      sync.Mutex
	buckets map[string]*localBucket
	now     func() time.Time
}

func NewTokenBucket(config *LimiterConfig) *TokenBucket {
	t := &TokenBucket{
		buckets: make(map[string]*localBucket),
		now:     time.Now,
	}
	if config != nil {
		t.LimiterConfig = config.withDefaults()
	} else {
		t.LimiterConfig = GetDefaultLimiterConfig()
	}
	return t
}

func (t *TokenBucket) Allow(ctx context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	b, ok := t.buckets[key]
	if !ok {
		b = &localBucket{tokens: float64(t.Capacity), lastRefill: now}
		t.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * float64(t.RatePS)
	if b.tokens > float64(t.Capacity) {
		b.tokens = float64(t.Capacity)
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

var (
	_ ILimiter = (*RsBucketToken)(nil)
	_ ILimiter = (*TokenBucket)(nil)
)
