package model

import (
	"strings"
	"time"
)

// metadata 固定鍵
const (
	MetaSearchQuery      = "searchQuery"
	MetaOriginalPlatform = "originalPlatform"
	MetaIsSearchLink     = "isSearchLink"
	MetaTravelType       = "travelType"
)

// Candidate 生成器或備援庫產出的原始候選項
type Candidate struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Reason      string   `json:"reason"`
	Tags        []string `json:"tags"`
	Type        string   `json:"type,omitempty"`
	SearchQuery string   `json:"searchQuery,omitempty"`
	Platform    string   `json:"platform,omitempty"`
}

// Item 推薦輸出的最小單位
type Item struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Reason      string                 `json:"reason"`
	Tags        []string               `json:"tags"`
	Category    Category               `json:"category"`
	SubType     SubType                `json:"subType,omitempty"`
	SearchQuery string                 `json:"searchQuery"`
	Platform    string                 `json:"platform"`
	Link        string                 `json:"link"`
	LinkType    LinkType               `json:"linkType"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// ItemFromCandidate 依類別將候選項轉為 Item；標題為空時回傳 false
func ItemFromCandidate(c Category, cand Candidate) (Item, bool) {
	title := strings.TrimSpace(cand.Title)
	if title == "" {
		return Item{}, false
	}
	query := strings.TrimSpace(cand.SearchQuery)
	if query == "" {
		query = title
	}
	tags := make([]string, 0, len(cand.Tags))
	for _, t := range cand.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	platform := strings.TrimSpace(cand.Platform)
	return Item{
		Title:       title,
		Description: strings.TrimSpace(cand.Description),
		Reason:      strings.TrimSpace(cand.Reason),
		Tags:        tags,
		Category:    c,
		SubType:     ParseSubType(c, cand.Type),
		SearchQuery: query,
		Platform:    platform,
		Metadata: map[string]interface{}{
			MetaSearchQuery:      query,
			MetaOriginalPlatform: platform,
		},
	}, true
}

// Query searchQuery 為空時退回標題
func (it Item) Query() string {
	if q := strings.TrimSpace(it.SearchQuery); q != "" {
		return q
	}
	return it.Title
}

// MetaString 讀取字串型 metadata
func (it Item) MetaString(key string) string {
	if it.Metadata == nil {
		return ""
	}
	s, _ := it.Metadata[key].(string)
	return s
}

// Clone 深拷貝，避免快取快照被呼叫端修改
func (it Item) Clone() Item {
	out := it
	if it.Tags != nil {
		out.Tags = append([]string(nil), it.Tags...)
	}
	if it.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(it.Metadata))
		for k, v := range it.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// CloneItems 複製整個批次
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// UserPreference 使用者在某類別下的偏好標籤
type UserPreference struct {
	UserID   string   `json:"userId"`
	Category Category `json:"category"`
	Tags     []string `json:"tags"`
}

// HistoryEntry 使用者已看過的推薦
type HistoryEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	SearchQuery string    `json:"searchQuery"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Request 推薦請求
type Request struct {
	Category      Category `json:"category"`
	Locale        Locale   `json:"locale"`
	UserID        string   `json:"userId,omitempty"`
	Count         int      `json:"count"`
	SkipCache     bool     `json:"skipCache,omitempty"`
	ExcludeTitles []string `json:"excludeTitles,omitempty"`
	Client        string   `json:"client,omitempty"`
}

// Anonymous 未登入請求不讀寫快取
func (r Request) Anonymous() bool {
	return strings.TrimSpace(r.UserID) == ""
}

// Response 推薦回應
type Response struct {
	Success         bool   `json:"success"`
	Recommendations []Item `json:"recommendations"`
	Source          Source `json:"source"`
	Error           string `json:"error,omitempty"`
}
