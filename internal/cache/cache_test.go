package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewClientFromRedis(rdb)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestHashRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	err := c.RunBatch(ctx, func(b Batch) {
		b.HSet("h", map[string]interface{}{"a": "1", "b": "2"})
		b.Expire("h", time.Minute)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["a"] != "1" || got["b"] != "2" {
		t.Errorf("hash fields not stored correctly: %v", got)
	}

	v, err := c.HGet(ctx, "h", "a")
	if err != nil || v != "1" {
		t.Errorf("HGet = %q, %v; want 1, nil", v, err)
	}
}

func TestMissingKeysAreNotErrors(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if v, err := c.Get(ctx, "absent"); err != nil || v != "" {
		t.Errorf("Get(absent) = %q, %v; want empty, nil", v, err)
	}
	if v, err := c.HGet(ctx, "absent", "f"); err != nil || v != "" {
		t.Errorf("HGet(absent) = %q, %v; want empty, nil", v, err)
	}
	m, err := c.HGetAll(ctx, "absent")
	if err != nil || len(m) != 0 {
		t.Errorf("HGetAll(absent) = %v, %v; want empty map, nil", m, err)
	}
}

func TestListAppendAndRange(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	err := c.RunBatch(ctx, func(b Batch) {
		b.RPush("l", "q0")
		b.RPush("l", "q1")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := c.LRange(ctx, "l")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0] != "q0" || items[1] != "q1" {
		t.Errorf("list order not preserved: %v", items)
	}

	n, err := c.LLen(ctx, "l")
	if err != nil || n != 2 {
		t.Errorf("LLen = %d, %v; want 2, nil", n, err)
	}
}

func TestBatchDeleteRemovesAllKeys(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if err := c.Set(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Set(ctx, "b", "2", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := c.RunBatch(ctx, func(b Batch) {
		b.Del("a", "b")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Get(ctx, "a"); v != "" {
		t.Errorf("key a still present after batch delete")
	}
	if v, _ := c.Get(ctx, "b"); v != "" {
		t.Errorf("key b still present after batch delete")
	}
}

func TestExpireReclaimsKeys(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Expire(ctx, "k", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if v, _ := c.Get(ctx, "k"); v != "" {
		t.Errorf("key survived past its TTL")
	}
}
