package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/infrastructure/metrics"
	"lifestyle-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// Key 快取鍵：類別:指紋
func Key(category model.Category, fingerprint string) string {
	return fmt.Sprintf("%s:%s", category, fingerprint)
}

// Options 行程內快取設定
type Options struct {
	MaxSize         int
	CleanupInterval time.Duration
}

// Manager 行程內推薦批次快取，支援 TTL 與 LRU 淘汰
type Manager struct {
	opts  Options
	mu    sync.RWMutex
	store map[string]cacheEntry
	stats Stats
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// cacheEntry 緩存條目；items 為整批快照，只會整筆替換
type cacheEntry struct {
	items       []model.Item
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// Stats 緩存統計
type Stats struct {
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRatio  float64 `json:"hit_ratio"`
}

// NewManager 創建新的緩存管理器並啟動過期清理
func NewManager(opts Options) *Manager {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1000
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}

	m := &Manager{
		opts:  opts,
		store: make(map[string]cacheEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go m.startCleanup()

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", opts.MaxSize),
		zap.Duration("清理間隔", opts.CleanupInterval),
	)
	return m
}

// Get 取得 (類別, 指紋) 的批次副本；過期視為未命中
func (m *Manager) Get(_ context.Context, category model.Category, fingerprint string) ([]model.Item, bool, error) {
	key := Key(category, fingerprint)

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.Misses++
		return nil, false, nil
	}

	now := m.now()
	if now.After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.Evictions++
		m.stats.Misses++
		metrics.CacheEntries.Set(float64(len(m.store)))
		common.LogDebug("快取已過期", zap.String("鍵", key))
		return nil, false, nil
	}

	entry.lastAccess = now
	entry.accessCount++
	m.store[key] = entry
	m.stats.Hits++

	return model.CloneItems(entry.items), true, nil
}

// Set 整筆替換 (類別, 指紋) 的批次
func (m *Manager) Set(_ context.Context, category model.Category, fingerprint string, items []model.Item, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("invalid cache ttl %s", ttl)
	}
	key := Key(category, fingerprint)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.opts.MaxSize {
		if evicted := m.cleanup(); evicted > 0 {
			common.LogDebug("快取清理執行", zap.Int("清理數量", evicted))
		}
		if len(m.store) >= m.opts.MaxSize {
			m.evictLRU()
		}
	}

	now := m.now()
	m.store[key] = cacheEntry{
		items:      model.CloneItems(items),
		expiresAt:  now.Add(ttl),
		createdAt:  now,
		lastAccess: now,
	}
	metrics.CacheEntries.Set(float64(len(m.store)))

	common.LogDebug("快取已儲存", zap.String("鍵", key), zap.Int("items", len(items)))
	return nil
}

// Clear 清空所有條目
func (m *Manager) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.store)
	m.store = make(map[string]cacheEntry)
	metrics.CacheEntries.Set(0)
	common.LogInfo("快取已清空", zap.Int("數量", n))
	return nil
}

// startCleanup 定期清理過期緩存，直到 Close
func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// cleanup 清理過期的緩存；呼叫端需持有寫鎖
func (m *Manager) cleanup() int {
	now := m.now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.Evictions++
		}
	}

	if count > 0 {
		metrics.CacheEntries.Set(float64(len(m.store)))
		common.LogInfo("Cleaned up expired cache entries",
			zap.Int("count", count),
			zap.Int64("total_evictions", m.stats.Evictions),
			zap.Int("remaining_size", len(m.store)),
		)
	}
	return count
}

// evictLRU 淘汰訪問次數最少、最久未訪問的條目
func (m *Manager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.Evictions++
		common.LogDebug("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// Stats 獲取緩存統計信息
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := m.stats
	st.Size = len(m.store)
	st.MaxSize = m.opts.MaxSize
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRatio = float64(st.Hits) / float64(total)
	}
	return st
}

// Close 停止清理協程並清空緩存
func (m *Manager) Close() error {
	m.once.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.Hits),
		zap.Int64("未命中次數", m.stats.Misses),
		zap.Int64("淘汰次數", m.stats.Evictions),
	)
	return nil
}
