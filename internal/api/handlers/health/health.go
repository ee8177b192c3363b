package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"lifestyle-recommender/internal/core/queue"
	"lifestyle-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// readyTimeout 單一依賴檢查的時限
const readyTimeout = 2 * time.Second

// Checker 依賴健康檢查
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckFunc 以函式實作 Checker
type CheckFunc func(ctx context.Context) error

// Ping 實作 Checker
func (f CheckFunc) Ping(ctx context.Context) error { return f(ctx) }

// QueueStatusProvider 提供隊列狀態
type QueueStatusProvider interface {
	Status() queue.Status
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// ReadyResponse 就緒檢查響應
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	queue   QueueStatusProvider
	checks  map[string]Checker
}

// NewHandler 創建健康檢查處理器
func NewHandler(version string, q QueueStatusProvider, checks map[string]Checker) *Handler {
	return &Handler{version: version, queue: q, checks: checks}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		st := h.queue.Status()
		response.Queue = &st
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器：任一依賴失敗回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		err := h.checks[name].Ping(ctx)
		cancel()

		if err != nil {
			resp.Status = "not_ready"
			resp.Checks[name] = err.Error()
			common.LogWarn("依賴檢查失敗", zap.String("check", name), zap.Error(err))
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
