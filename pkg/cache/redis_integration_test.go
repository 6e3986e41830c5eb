//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv("CURSOR2D_REDIS_ADDR")
	if addr == "" {
		t.Skip("CURSOR2D_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisCache() error: %v", err)
	}
	defer c.Close()

	prefix := "cursor2d-test:" + time.Now().Format("150405.000") + ":"
	key := prefix + "render"

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get() before Set = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, key, []byte(`{"url":"x"}`), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != `{"url":"x"}` {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}

	n, err := c.Clear(ctx, prefix)
	if err != nil || n != 1 {
		t.Fatalf("Clear() = %d, %v, want 1", n, err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("key survived Clear()")
	}
}
