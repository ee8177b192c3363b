package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"lifestyle-recommender/internal/core/model"

	"github.com/google/uuid"
)

// newTestRedis 需要 TEST_REDIS_ADDR 才會執行
func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	r, err := NewRedisCache(ctx, RedisOptions{Addr: addr, KeyPrefix: "test:" + uuid.NewString() + ":"})
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	t.Cleanup(func() {
		_ = r.Clear(context.Background())
		_ = r.Close()
	})
	return r
}

func TestRedisCache_SetGetClear(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	if _, ok, err := r.Get(ctx, model.CategoryFood, "fp"); ok || err != nil {
		t.Fatalf("Get() on empty = ok %v err %v, want miss", ok, err)
	}

	if err := r.Set(ctx, model.CategoryFood, "fp", batch("A", "B"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := r.Get(ctx, model.CategoryFood, "fp")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v err %v, want hit", ok, err)
	}
	if len(got) != 2 || got[0].Title != "A" || got[0].Category != model.CategoryFood {
		t.Errorf("Get() = %+v", got)
	}

	if err := r.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := r.Get(ctx, model.CategoryFood, "fp"); ok {
		t.Error("entry survived Clear")
	}
}

func TestRedisCache_InvalidTTL(t *testing.T) {
	r := NewRedisCacheWithClient(nil, "x:")
	if err := r.Set(context.Background(), model.CategoryFood, "fp", batch("A"), 0); err == nil {
		t.Error("Set() with zero ttl should fail")
	}
}
