package recommend

import (
	"context"
	"errors"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/core/queue"
)

var (
	// ErrGeneratorUnavailable 未設定生成器或熔斷器開啟
	ErrGeneratorUnavailable = errors.New("generator unavailable")
	// ErrGeneratorTimeout 生成器超過單次呼叫時限
	ErrGeneratorTimeout = errors.New("generator timeout")
	// ErrEmptyGeneration 生成器沒有產出任何可用候選
	ErrEmptyGeneration = errors.New("generator returned no candidates")
)

// GenerateInput 生成器輸入
type GenerateInput struct {
	Category       model.Category
	Locale         model.Locale
	History        []model.HistoryEntry
	PreferenceTags []string
	ExcludeTitles  []string
	// Count 期望的候選數量，通常大於請求數量以便去重
	Count int
}

// Generator 外部內容生成器
type Generator interface {
	Generate(ctx context.Context, in GenerateInput) ([]model.Candidate, error)
}

// HistoryStore 使用者推薦歷史
type HistoryStore interface {
	Read(ctx context.Context, userID string, category model.Category, limit int) ([]model.HistoryEntry, error)
	Write(ctx context.Context, userID string, items []model.Item) ([]string, error)
}

// PreferenceStore 使用者偏好（唯讀）
type PreferenceStore interface {
	Read(ctx context.Context, userID string, category model.Category) (*model.UserPreference, error)
}

// Cache 以 (類別, 指紋) 為鍵的批次快取
type Cache interface {
	Get(ctx context.Context, category model.Category, fingerprint string) ([]model.Item, bool, error)
	Set(ctx context.Context, category model.Category, fingerprint string, items []model.Item, ttl time.Duration) error
}

// Submitter 背景持久化任務的提交端
type Submitter interface {
	Submit(task queue.Task) error
}
