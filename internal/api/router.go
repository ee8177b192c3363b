package api

import (
	"context"
	"net/http"
	"time"

	"lifestyle-recommender/internal/api/handlers/health"
	recommendHandler "lifestyle-recommender/internal/api/handlers/recommend"
	"lifestyle-recommender/internal/api/middleware"
	"lifestyle-recommender/internal/infrastructure/config"
	"lifestyle-recommender/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// defaultRequestTimeout 未設定寫入逾時時的請求時限
const defaultRequestTimeout = 60 * time.Second

// Dependencies 路由所需的服務
type Dependencies struct {
	Recommender recommendHandler.Recommender
	// Cache 為 nil 代表快取停用
	Cache   recommendHandler.Clearer
	Queue   health.QueueStatusProvider
	Checks  map[string]health.Checker
	Limiter *middleware.RateLimiter
	Dedup   *middleware.DedupGuard
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, common.ErrNotFound.Response(false))
	})
	router.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, common.ErrMethodNotAllowed.Response(false))
	})

	// 註冊基礎中間件；requestid 需在 Recovery 與 Logger 之前
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	// 健康檢查與指標不受限流影響
	healthHandler := health.NewHandler(cfg.App.Version, deps.Queue, deps.Checks)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	timeout := cfg.Server.WriteTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.Server.MaxBodyBytes > 0 {
		api.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}
	if deps.Limiter != nil {
		api.Use(middleware.RateLimit(deps.Limiter))
	}
	if deps.Dedup != nil {
		api.Use(middleware.Deduplication(deps.Dedup))
	}
	api.Use(requestTimeout(timeout))

	h := recommendHandler.NewHandler(deps.Recommender, deps.Cache, cfg.Recommend.DefaultCount, cfg.App.Debug)
	{
		api.POST("/recommendations", h.HandleRecommend)
		api.GET("/recommendations/:category", h.HandleRecommendByCategory)
		api.DELETE("/cache", h.HandleClearCache)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("cache_enabled", deps.Cache != nil),
		zap.Bool("rate_limit_enabled", deps.Limiter != nil),
		zap.Bool("dedup_enabled", deps.Dedup != nil),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}

func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}

	return cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization",
			"X-Request-ID", middleware.HeaderClientID, middleware.HeaderClientType},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: !wildcard,
		MaxAge:           12 * time.Hour,
	}
}

// requestTimeout 設置請求超時；處理器尚未回應時回傳 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrGatewayTimeout.Response(false))
		}
	}
}
