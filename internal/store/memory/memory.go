// Package memory 行程內歷史與偏好儲存，適用開發與測試
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/store"
)

// defaultMaxPerUser 每位使用者保留的歷史筆數上限
const defaultMaxPerUser = 500

// History 行程內推薦歷史
type History struct {
	mu         sync.RWMutex
	entries    map[string][]model.HistoryEntry
	maxPerUser int
	now        func() time.Time
}

// NewHistory 創建行程內歷史儲存
func NewHistory() *History {
	return &History{
		entries:    make(map[string][]model.HistoryEntry),
		maxPerUser: defaultMaxPerUser,
		now:        time.Now,
	}
}

// Read 回傳使用者在該類別下最新的 limit 筆歷史，新到舊
func (h *History) Read(_ context.Context, userID string, category model.Category, limit int) ([]model.HistoryEntry, error) {
	if err := store.ValidateRead(userID, category, limit); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	all := h.entries[userID]
	out := make([]model.HistoryEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if all[i].Category == category {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Write 追加歷史並回傳新紀錄 ID
func (h *History) Write(_ context.Context, userID string, items []model.Item) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, store.ErrEmptyUserID
	}
	if len(items) == 0 {
		return []string{}, nil
	}

	entries := store.NewEntries(userID, items, h.now())

	h.mu.Lock()
	defer h.mu.Unlock()

	all := append(h.entries[userID], entries...)
	if over := len(all) - h.maxPerUser; over > 0 {
		all = append([]model.HistoryEntry(nil), all[over:]...)
	}
	h.entries[userID] = all
	return store.EntryIDs(entries), nil
}

// Reset 清空所有歷史
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = make(map[string][]model.HistoryEntry)
}

type prefKey struct {
	userID   string
	category model.Category
}

// Preferences 行程內偏好
type Preferences struct {
	mu    sync.RWMutex
	prefs map[prefKey][]string
}

// NewPreferences 創建行程內偏好儲存
func NewPreferences() *Preferences {
	return &Preferences{prefs: make(map[prefKey][]string)}
}

// Read 沒有偏好時回傳 nil
func (p *Preferences) Read(_ context.Context, userID string, category model.Category) (*model.UserPreference, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tags, ok := p.prefs[prefKey{userID, category}]
	if !ok {
		return nil, nil
	}
	return &model.UserPreference{
		UserID:   userID,
		Category: category,
		Tags:     append([]string(nil), tags...),
	}, nil
}

// Save 設定使用者在該類別的偏好標籤
func (p *Preferences) Save(_ context.Context, pref model.UserPreference) error {
	if strings.TrimSpace(pref.UserID) == "" {
		return store.ErrEmptyUserID
	}
	if !pref.Category.Valid() {
		return model.ErrInvalidCategory
	}

	tags := append([]string(nil), pref.Tags...)
	sort.Strings(tags)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs[prefKey{pref.UserID, pref.Category}] = tags
	return nil
}
