package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnexpectedReply Redis script 回傳格式不符
var ErrUnexpectedReply = errors.New("ratelimit: unexpected redis reply")

// TokenBucket 以 Redis 實作的 token bucket，多個 instance 共用同一份額度
type TokenBucket struct {
	redis      *redis.Client
	prefix     string
	capacity   int
	refillRate float64 // tokens per second
	now        func() time.Time
}

// NewTokenBucket 建立限流器
//
// 參數:
//
//	client: *redis.Client - Redis 客戶端
//	prefix: string - key 前綴，如 "ratelimit:login"
//	capacity: int - 桶容量 (突發上限)
//	refillRate: float64 - 每秒補充的 token 數
func NewTokenBucket(client *redis.Client, prefix string, capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		redis:      client,
		prefix:     prefix,
		capacity:   capacity,
		refillRate: refillRate,
		now:        time.Now,
	}
}

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local data = redis.call('HMGET', key, 'tokens', 'last')
local tokens = tonumber(data[1])
local last = tonumber(data[2])

if tokens == nil then tokens = capacity end
if last == nil then last = now end

local delta = now - last
if delta < 0 then delta = 0 end

local filled = tokens + (delta * refill_rate)
if filled > capacity then filled = capacity end

local allowed = 0
if filled >= 1 then
  allowed = 1
  filled = filled - 1
end

redis.call('HSET', key, 'tokens', tostring(filled), 'last', tostring(now))
redis.call('EXPIRE', key, ttl)

return {allowed, tostring(filled)}
`)

func (b *TokenBucket) key(raw string) string {
	if b.prefix == "" {
		return raw
	}
	return b.prefix + ":" + raw
}

// Allow 嘗試取用一個 token，回傳是否允許與剩餘 token 數
func (b *TokenBucket) Allow(ctx context.Context, rawKey string) (bool, int, error) {
	if b == nil || b.redis == nil || b.capacity <= 0 || b.refillRate <= 0 {
		return true, 0, nil
	}

	now := float64(b.now().UnixNano()) / 1e9
	ttl := int64(float64(b.capacity)/b.refillRate) + 1

	res, err := tokenBucketScript.Run(ctx, b.redis, []string{b.key(rawKey)}, b.capacity, b.refillRate, now, ttl).Result()
	if err != nil {
		return false, 0, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, ErrUnexpectedReply
	}
	allowed, ok := toFloat64(vals[0])
	if !ok {
		return false, 0, ErrUnexpectedReply
	}
	remaining, ok := toFloat64(vals[1])
	if !ok {
		return false, 0, ErrUnexpectedReply
	}
	return allowed == 1, int(remaining), nil
}

func toFloat64(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
