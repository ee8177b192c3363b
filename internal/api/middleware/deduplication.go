package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"lifestyle-recommender/internal/infrastructure/metrics"
	"lifestyle-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DedupGuard 記錄近期請求指紋，拒絕 window 內的重複提交
type DedupGuard struct {
	mu       sync.Mutex
	requests map[string]time.Time
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// NewDedupGuard 創建去重器並啟動自動清理
func NewDedupGuard(window time.Duration) *DedupGuard {
	if window <= 0 {
		window = time.Second
	}
	g := &DedupGuard{
		requests: make(map[string]time.Time),
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go g.startCleanup(10 * time.Minute)
	return g
}

// Seen 指紋在 window 內出現過時回傳 true，否則記錄並回傳 false
func (g *DedupGuard) Seen(fingerprint string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.requests[fingerprint]; ok && now.Sub(last) <= g.window {
		return true
	}
	g.requests[fingerprint] = now
	return false
}

// Reset 清空所有指紋
func (g *DedupGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = make(map[string]time.Time)
}

// startCleanup 定期清除過期指紋
func (g *DedupGuard) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.cleanup()
		case <-g.stop:
			return
		}
	}
}

func (g *DedupGuard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, t := range g.requests {
		if now.Sub(t) > 10*g.window {
			delete(g.requests, k)
		}
	}
}

// Stop 停止清理協程
func (g *DedupGuard) Stop() {
	g.once.Do(func() { close(g.stop) })
}

// Deduplication 請求去重中間件，只處理 POST
func Deduplication(g *DedupGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrRequestTooLarge.Response(false))
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		// 生成請求指紋
		fingerprint := c.Request.Method + ":" + c.Request.URL.Path + ":" + ClientKey(c)
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		if g.Seen(fingerprint) {
			metrics.DuplicateRequests.Inc()
			common.LogInfo("Duplicate request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("client", ClientKey(c)),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrDuplicateRequest.Response(false))
			return
		}

		c.Next()
	}
}
