package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lifestyle-recommender/internal/api"
	"lifestyle-recommender/internal/api/handlers/health"
	"lifestyle-recommender/internal/api/middleware"
	"lifestyle-recommender/internal/core/ai"
	"lifestyle-recommender/internal/core/ai/openrouter"
	"lifestyle-recommender/internal/core/ai/provider"
	"lifestyle-recommender/internal/core/cache"
	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/core/platform"
	"lifestyle-recommender/internal/core/queue"
	"lifestyle-recommender/internal/core/recommend"
	"lifestyle-recommender/internal/infrastructure/config"
	"lifestyle-recommender/internal/pkg/common"
	"lifestyle-recommender/internal/store"
	badgerstore "lifestyle-recommender/internal/store/badger"
	"lifestyle-recommender/internal/store/memory"
	"lifestyle-recommender/internal/store/postgres"

	"go.uber.org/zap"
)

// recommendationCache 快取後端：推薦管線讀寫、操作者清空
type recommendationCache interface {
	recommend.Cache
	Clear(ctx context.Context) error
	Close() error
}

// stores 歷史與偏好儲存及其關閉函式
type stores struct {
	history recommend.HistoryStore
	prefs   recommend.PreferenceStore
	checks  map[string]health.Checker
	close   func() error
}

func main() {
	// 載入設定（.env 由 LoadConfig 處理）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("deployment", cfg.Recommend.Deployment),
		zap.Bool("openrouter_enabled", cfg.OpenRouter.Enabled),
		zap.String("openrouter_key", config.MaskAPIKey(cfg.OpenRouter.APIKey)),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer startCancel()

	// 初始化儲存
	st, err := openStores(startCtx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize stores", zap.Error(err))
	}

	// 初始化快取；停用時為 nil
	recCache, err := openCache(startCtx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if rc, ok := recCache.(*cache.RedisCache); ok {
		st.checks["redis"] = rc
	}

	// 持久化隊列
	persistQueue := queue.NewManager(queue.Options{
		Workers:    cfg.Queue.Workers,
		MaxSize:    cfg.Queue.MaxSize,
		JobTimeout: cfg.Queue.JobTimeout,
	})
	drainDone := make(chan struct{})
	go drainFailures(persistQueue, drainDone)

	catalog := platform.NewCatalog()
	generator, closeGenerator := newGenerator(cfg, catalog)

	deps := recommend.Deps{
		Generator:   generator,
		History:     st.history,
		Preferences: st.prefs,
		Persister:   persistQueue,
		Catalog:     catalog,
	}
	if recCache != nil {
		deps.Cache = recCache
	}
	orchestrator := recommend.NewOrchestrator(recommend.Options{
		DefaultLocale:    defaultLocale(cfg.Recommend),
		CacheTTL:         cfg.Recommend.CacheTTL,
		GeneratorTimeout: cfg.Recommend.GeneratorTimeout,
		HistoryLimit:     cfg.Recommend.HistoryLimit,
		DedupMode:        model.ParseDedupMode(cfg.Recommend.DedupMode),
		MaxCount:         cfg.Recommend.MaxCount,
		FitnessVenues:    cfg.Recommend.VenuesEnabled(),
	}, deps)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.IdleTTL)
	}
	dedup := middleware.NewDedupGuard(cfg.DedupWindow)

	routerDeps := api.Dependencies{
		Recommender: orchestrator,
		Queue:       persistQueue,
		Checks:      st.checks,
		Limiter:     limiter,
		Dedup:       dedup,
	}
	if recCache != nil {
		routerDeps.Cache = recCache
	}
	router := api.SetupRouter(cfg, routerDeps)

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.String("addr", srv.Addr),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	// 先排空持久化隊列，再關閉其依賴的儲存與快取
	if err := persistQueue.Close(ctx); err != nil {
		common.LogWarn("持久化隊列未能完全排空", zap.Error(err), zap.Any("status", persistQueue.Status()))
	}
	close(drainDone)

	if limiter != nil {
		limiter.Stop()
	}
	dedup.Stop()
	if err := closeGenerator(); err != nil {
		common.LogWarn("Failed to close generator", zap.Error(err))
	}
	if recCache != nil {
		if err := recCache.Close(); err != nil {
			common.LogWarn("Failed to close cache", zap.Error(err))
		}
	}
	if err := st.close(); err != nil {
		common.LogWarn("Failed to close stores", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

// openStores 依設定開啟歷史與偏好儲存
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	checks := make(map[string]health.Checker)

	switch cfg.Store.Driver {
	case store.DriverPostgres:
		db, err := postgres.New(ctx, postgres.Config{DSN: cfg.Store.PostgresDSN})
		if err != nil {
			return nil, err
		}
		checks["postgres"] = db
		return &stores{history: db.History(), prefs: db.Preferences(), checks: checks, close: db.Close}, nil

	case store.DriverBadger:
		db, err := badgerstore.Open(badgerstore.Options{Path: cfg.Store.BadgerPath})
		if err != nil {
			return nil, err
		}
		return &stores{history: db.History(), prefs: db.Preferences(), checks: checks, close: db.Close}, nil

	default:
		common.LogWarn("使用記憶體儲存，重啟後歷史紀錄將遺失")
		return &stores{
			history: memory.NewHistory(),
			prefs:   memory.NewPreferences(),
			checks:  checks,
			close:   func() error { return nil },
		}, nil
	}
}

// openCache 依設定建立快取後端；停用時回傳 nil
func openCache(ctx context.Context, cfg *config.Config) (recommendationCache, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("推薦快取已停用")
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:      cfg.Cache.RedisAddr,
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
	default:
		return cache.NewManager(cache.Options{
			MaxSize:         cfg.Cache.MaxSize,
			CleanupInterval: cfg.Cache.CleanupInterval,
		}), nil
	}
}

// newGenerator 建立 OpenRouter 生成器並包上熔斷；未啟用時回傳 nil，推薦一律走備援
func newGenerator(cfg *config.Config, catalog *platform.Catalog) (recommend.Generator, func() error) {
	if !cfg.OpenRouter.Enabled {
		common.LogWarn("OpenRouter 未啟用，所有推薦將使用備援內容")
		return nil, func() error { return nil }
	}

	client := openrouter.NewClient(provider.Config{
		APIKey:      cfg.OpenRouter.APIKey,
		Model:       cfg.OpenRouter.Model,
		BaseURL:     cfg.OpenRouter.BaseURL,
		MaxTokens:   cfg.OpenRouter.MaxTokens,
		Temperature: cfg.OpenRouter.Temperature,
		Timeout:     cfg.OpenRouter.Timeout,
		Title:       cfg.App.Name,
	})

	gen := ai.NewBreakerGenerator(ai.NewGenerator(client, catalog), ai.BreakerOptions{
		Name:         "openrouter",
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		MinRequests:  cfg.Breaker.MinRequests,
		FailureRatio: cfg.Breaker.FailureRatio,
	})
	return gen, client.Close
}

// defaultLocale 未指定預設語系時依部署地區決定
func defaultLocale(rc config.RecommendConfig) model.Locale {
	fallback := model.LocaleEN
	if strings.EqualFold(rc.Deployment, "cn") {
		fallback = model.LocaleZH
	}
	return model.ParseLocale(rc.DefaultLocale, fallback)
}

// drainFailures 消費隊列失敗通道直到關閉
func drainFailures(q *queue.Manager, done <-chan struct{}) {
	for {
		select {
		case f := <-q.Errors():
			common.LogDebug("持久化失敗已記錄", zap.String("kind", f.Kind), zap.Error(f.Err))
		case <-done:
			return
		}
	}
}
