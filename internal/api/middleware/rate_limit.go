package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"lifestyle-recommender/internal/infrastructure/metrics"
	"lifestyle-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 識別用戶端的標頭
const (
	HeaderClientID   = "X-Client-ID"
	HeaderClientType = "X-Client-Type"
)

// RateLimiter 以用戶端為單位的令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	window   time.Duration
	idleTTL  time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// limiterEntry 限流器與最後存取時間
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter 創建新的限流器；每個用戶端在 window 內最多 requests 次
func NewRateLimiter(requests int, window, idleTTL time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}

	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		window:   window,
		idleTTL:  idleTTL,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.startCleanup(idleTTL)
	return rl
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = rl.now()
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// Reset 清空所有用戶端狀態
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiters = make(map[string]*limiterEntry)
}

// Len 目前追蹤的用戶端數量
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// startCleanup 定期移除閒置的限流器
func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup 移除超過 idleTTL 未存取的限流器
func (rl *RateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.now().Add(-rl.idleTTL)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, key)
			removed++
		}
	}
	if removed > 0 {
		common.LogDebug("已清理閒置限流器", zap.Int("count", removed), zap.Int("remaining", len(rl.limiters)))
	}
	return removed
}

// Stop 停止清理協程
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// ClientKey 用戶端識別：優先使用 X-Client-ID，否則為 IP 加用戶端類型
func ClientKey(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(HeaderClientID)); id != "" {
		return "id:" + id
	}
	clientType := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderClientType)))
	if clientType == "" {
		clientType = "web"
	}
	return "ip:" + c.ClientIP() + ":" + clientType
}

// RateLimit 限流中間件
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	retryAfter := int(math.Ceil(rl.window.Seconds() / float64(rl.burst)))
	if retryAfter < 1 {
		retryAfter = 1
	}

	return func(c *gin.Context) {
		key := ClientKey(c)
		if !rl.Allow(key) {
			metrics.RateLimited.Inc()
			common.LogInfo("Rate limit exceeded",
				zap.String("client", key),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrTooManyRequests.Response(false))
			return
		}

		c.Next()
	}
}
