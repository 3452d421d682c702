package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisReceipts_StoreReceipt_Success(t *testing.T) {
	t.Parallel()

	// Start in-memory Redis
	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	ttl := 10 * time.Second
	receipts := NewRedisReceipts(rdb, ttl)

	ctx := context.Background()
	recordID := int64(42)
	response := `{"status":"queued"}`
	sentAt := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	if err := receipts.StoreReceipt(ctx, recordID, response, sentAt); err != nil {
		t.Fatalf("StoreReceipt() error: %v", err)
	}

	key := "receipt:42"

	if !mr.Exists(key) {
		t.Fatalf("expected key %q to exist", key)
	}

	ttlRemaining := mr.TTL(key)
	if ttlRemaining <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttlRemaining)
	}

	raw, err := mr.Get(key)
	if err != nil {
		t.Fatalf("failed to get key %q: %v", key, err)
	}

	var got receiptValue
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("failed to unmarshal value: %v", err)
	}

	if got.Response != response {
		t.Fatalf("expected response %q, got %q", response, got.Response)
	}
	if !got.SentAt.Equal(sentAt.UTC()) {
		t.Fatalf("expected SentAt %v, got %v", sentAt.UTC(), got.SentAt)
	}
}

func TestRedisReceipts_StoreReceipt_OverwritesExistingValue(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	receipts := NewRedisReceipts(rdb, time.Minute)
	ctx := context.Background()

	recordID := int64(1)

	// First write
	if err := receipts.StoreReceipt(ctx, recordID, "first", time.Now()); err != nil {
		t.Fatalf("first StoreReceipt() error: %v", err)
	}

	// Second write should overwrite
	secondTime := time.Now().Add(time.Minute)
	if err := receipts.StoreReceipt(ctx, recordID, "second", secondTime); err != nil {
		t.Fatalf("second StoreReceipt() error: %v", err)
	}

	raw, err := mr.Get("receipt:1")
	if err != nil {
		t.Fatalf("failed to get key receipt:1: %v", err)
	}

	var got receiptValue
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("failed to unmarshal value: %v", err)
	}

	if got.Response != "second" {
		t.Fatalf("expected overwritten response %q, got %q", "second", got.Response)
	}
}

func TestRedisReceipts_StoreReceipt_ContextCanceled(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	receipts := NewRedisReceipts(rdb, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := receipts.StoreReceipt(ctx, 1, "x", time.Now())
	if err == nil {
		t.Fatalf("expected error due to canceled context, got nil")
	}
}
