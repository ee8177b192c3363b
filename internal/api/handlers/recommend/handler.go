package recommend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recommender 推薦管線
type Recommender interface {
	Recommend(ctx context.Context, req model.Request) (*model.Response, error)
}

// Clearer 可清空的快取
type Clearer interface {
	Clear(ctx context.Context) error
}

// RecommendRequest 推薦請求
type RecommendRequest struct {
	Category      string   `json:"category" binding:"required"`
	Locale        string   `json:"locale" binding:"omitempty,oneof=zh en"`
	UserID        string   `json:"userId" binding:"max=128"`
	Count         *int     `json:"count"`
	SkipCache     bool     `json:"skipCache"`
	ExcludeTitles []string `json:"excludeTitles" binding:"max=100,dive,max=200"`
	Client        string   `json:"client" binding:"omitempty,oneof=app web"`
}

// RecommendQuery GET 版本的查詢參數
type RecommendQuery struct {
	Locale        string   `form:"locale" binding:"omitempty,oneof=zh en"`
	UserID        string   `form:"userId" binding:"max=128"`
	Count         *int     `form:"count"`
	SkipCache     bool     `form:"skipCache"`
	ExcludeTitles []string `form:"excludeTitles" binding:"max=100,dive,max=200"`
	Client        string   `form:"client" binding:"omitempty,oneof=app web"`
}

// Handler 推薦 API 處理器
type Handler struct {
	svc          Recommender
	cache        Clearer
	defaultCount int
	debug        bool
}

// NewHandler 創建推薦處理器；cache 可為 nil（快取停用）
func NewHandler(svc Recommender, cache Clearer, defaultCount int, debug bool) *Handler {
	if defaultCount <= 0 {
		defaultCount = 5
	}
	return &Handler{svc: svc, cache: cache, defaultCount: defaultCount, debug: debug}
}

// HandleRecommend 處理 POST /api/v1/recommendations
func (h *Handler) HandleRecommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.WithErr(err))
		return
	}

	h.serve(c, req.Category, model.Request{
		Locale:        model.Locale(req.Locale),
		UserID:        strings.TrimSpace(req.UserID),
		Count:         h.count(req.Count),
		SkipCache:     req.SkipCache,
		ExcludeTitles: req.ExcludeTitles,
		Client:        req.Client,
	})
}

// HandleRecommendByCategory 處理 GET /api/v1/recommendations/:category
func (h *Handler) HandleRecommendByCategory(c *gin.Context) {
	var q RecommendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, common.ErrInvalidRequest.WithErr(err))
		return
	}

	h.serve(c, c.Param("category"), model.Request{
		Locale:        model.Locale(q.Locale),
		UserID:        strings.TrimSpace(q.UserID),
		Count:         h.count(q.Count),
		SkipCache:     q.SkipCache,
		ExcludeTitles: splitTitles(q.ExcludeTitles),
		Client:        q.Client,
	})
}

// HandleClearCache 處理 DELETE /api/v1/cache
func (h *Handler) HandleClearCache(c *gin.Context) {
	if h.cache == nil {
		h.fail(c, common.ErrCacheDisabled)
		return
	}
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		h.fail(c, common.ErrInternalError.WithErr(err))
		return
	}

	common.LogInfo("推薦快取已由操作者清空",
		zap.String("request_id", requestid.Get(c)),
		zap.String("client_ip", c.ClientIP()),
	)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) serve(c *gin.Context, rawCategory string, req model.Request) {
	category, err := model.ParseCategory(rawCategory)
	if err != nil {
		h.fail(c, common.ErrInvalidCategory.WithErr(err))
		return
	}
	req.Category = category

	resp, err := h.svc.Recommend(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCategory) {
			h.fail(c, common.ErrInvalidCategory.WithErr(err))
			return
		}
		h.fail(c, common.ErrInternalError.WithErr(err))
		return
	}

	common.LogInfo("推薦完成",
		zap.String("request_id", requestid.Get(c)),
		zap.String("category", category.String()),
		zap.String("source", string(resp.Source)),
		zap.Int("count", len(resp.Recommendations)),
		zap.Bool("anonymous", req.Anonymous()),
	)
	c.JSON(http.StatusOK, resp)
}

// count 未帶 count 時使用預設值；範圍由推薦管線限制
func (h *Handler) count(n *int) int {
	if n == nil {
		return h.defaultCount
	}
	return *n
}

func (h *Handler) fail(c *gin.Context, e *common.CustomError) {
	fields := []zap.Field{
		zap.String("request_id", requestid.Get(c)),
		zap.String("code", e.Code),
		zap.String("path", c.Request.URL.Path),
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	if e.Status >= http.StatusInternalServerError {
		common.LogError("推薦請求失敗", fields...)
	} else {
		common.LogWarn("推薦請求無效", fields...)
	}
	c.AbortWithStatusJSON(e.Status, e.Response(h.debug))
}

// splitTitles 支援重複參數與逗號分隔兩種寫法
func splitTitles(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
