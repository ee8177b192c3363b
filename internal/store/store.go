// Package store 推薦歷史與使用者偏好的儲存實作共用定義
package store

import (
	"errors"
	"strings"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/pkg/common"
)

var (
	// ErrEmptyUserID 匿名使用者不可寫入歷史或偏好
	ErrEmptyUserID = errors.New("empty user id")
	// ErrInvalidLimit 讀取筆數必須為正數
	ErrInvalidLimit = errors.New("invalid history limit")
)

// Driver 儲存後端
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// NewEntries 將推薦結果轉為歷史紀錄，逐筆配發 ID 與相同的建立時間
func NewEntries(userID string, items []model.Item, now time.Time) []model.HistoryEntry {
	entries := make([]model.HistoryEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, model.HistoryEntry{
			ID:          common.GenerateUUID(),
			UserID:      userID,
			Category:    it.Category,
			Title:       it.Title,
			SearchQuery: it.Query(),
			CreatedAt:   now.UTC(),
		})
	}
	return entries
}

// EntryIDs 取出歷史紀錄 ID
func EntryIDs(entries []model.HistoryEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// ValidateRead 檢查歷史讀取參數
func ValidateRead(userID string, category model.Category, limit int) error {
	if strings.TrimSpace(userID) == "" {
		return ErrEmptyUserID
	}
	if !category.Valid() {
		return model.ErrInvalidCategory
	}
	if limit <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
