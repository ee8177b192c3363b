package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// RedisOptions Redis 快取設定
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisCache 跨副本共用的批次快取
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// redisEntry 存入 Redis 的批次內容
type redisEntry struct {
	Items     []model.Item `json:"items"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewRedisCache 建立 Redis 快取並測試連線
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 快取已連線", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return NewRedisCacheWithClient(client, opts.KeyPrefix), nil
}

// NewRedisCacheWithClient 以既有客戶端建立快取
func NewRedisCacheWithClient(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get 獲取緩存；redis.Nil 視為未命中
func (r *RedisCache) Get(ctx context.Context, category model.Category, fingerprint string) ([]model.Item, bool, error) {
	key := r.key(category, fingerprint)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cache: %w", err)
	}

	var entry redisEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	if len(entry.Items) == 0 {
		return nil, false, nil
	}
	return entry.Items, true, nil
}

// Set 以單一 SET 指令整筆替換並設定 TTL
func (r *RedisCache) Set(ctx context.Context, category model.Category, fingerprint string, items []model.Item, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("invalid cache ttl %s", ttl)
	}

	data, err := json.Marshal(redisEntry{Items: items, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := r.client.Set(ctx, r.key(category, fingerprint), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Clear 刪除本服務前綴下的所有鍵
func (r *RedisCache) Clear(ctx context.Context) error {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	common.LogInfo("Redis 快取已清空", zap.Int("數量", deleted))
	return nil
}

// Ping 健康檢查
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close 關閉連線
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) key(category model.Category, fingerprint string) string {
	return r.prefix + Key(category, fingerprint)
}
