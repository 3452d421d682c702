package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisReceipts keeps a short-lived delivery receipt per sent
// notification, keyed by the audit record id.
type RedisReceipts struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisReceipts(rdb *redis.Client, ttl time.Duration) *RedisReceipts {
	return &RedisReceipts{rdb: rdb, ttl: ttl}
}

type receiptValue struct {
	Response string    `json:"response"`
	SentAt   time.Time `json:"sentAt"`
}

func (c *RedisReceipts) StoreReceipt(ctx context.Context, recordID int64, response string, sentAt time.Time) error {
	key := fmt.Sprintf("receipt:%d", recordID)
	val := receiptValue{
		Response: response,
		SentAt:   sentAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
