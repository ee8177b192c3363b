// Package postgres PostgreSQL 歷史與偏好儲存
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/pkg/common"
	"lifestyle-recommender/internal/store"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Config 資料庫設定
type Config struct {
	DSN string
}

// DB 包裝資料庫連線
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New 建立連線、設定連線池並執行遷移
func New(ctx context.Context, cfg Config) (*DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	common.LogInfo("PostgreSQL 儲存已就緒")
	return &DB{conn: conn, now: time.Now}, nil
}

// Close 關閉連線
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping 健康檢查
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// History 推薦歷史檢視
func (db *DB) History() *History {
	return &History{db: db}
}

// Preferences 使用者偏好檢視
func (db *DB) Preferences() *Preferences {
	return &Preferences{db: db}
}

// History 實作推薦歷史讀寫
type History struct {
	db *DB
}

// Read 新到舊回傳最多 limit 筆
func (h *History) Read(ctx context.Context, userID string, category model.Category, limit int) ([]model.HistoryEntry, error) {
	if err := store.ValidateRead(userID, category, limit); err != nil {
		return nil, err
	}

	rows, err := h.db.conn.QueryContext(ctx, `
		SELECT id, user_id, category, title, search_query, created_at
		FROM recommendation_history
		WHERE user_id = $1 AND category = $2
		ORDER BY created_at DESC, seq DESC
		LIMIT $3
	`, userID, string(category), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := make([]model.HistoryEntry, 0, limit)
	for rows.Next() {
		var e model.HistoryEntry
		var cat string
		if err := rows.Scan(&e.ID, &e.UserID, &cat, &e.Title, &e.SearchQuery, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.Category = model.Category(cat)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}

// Write 於單一交易中寫入整批歷史
func (h *History) Write(ctx context.Context, userID string, items []model.Item) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, store.ErrEmptyUserID
	}
	if len(items) == 0 {
		return []string{}, nil
	}

	entries := store.NewEntries(userID, items, h.db.now())

	tx, err := h.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendation_history (id, user_id, category, title, search_query, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.UserID, string(e.Category), e.Title, e.SearchQuery, e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert history %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	common.LogDebug("推薦歷史已寫入", zap.String("user_id", userID), zap.Int("count", len(entries)))
	return store.EntryIDs(entries), nil
}

// Preferences 實作偏好讀取
type Preferences struct {
	db *DB
}

// Read 沒有偏好時回傳 nil
func (p *Preferences) Read(ctx context.Context, userID string, category model.Category) (*model.UserPreference, error) {
	var tags []string
	err := p.db.conn.QueryRowContext(ctx,
		"SELECT tags FROM user_preferences WHERE user_id = $1 AND category = $2",
		userID, string(category),
	).Scan(pq.Array(&tags))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	return &model.UserPreference{UserID: userID, Category: category, Tags: tags}, nil
}

// Save 新增或覆寫偏好標籤
func (p *Preferences) Save(ctx context.Context, pref model.UserPreference) error {
	if strings.TrimSpace(pref.UserID) == "" {
		return store.ErrEmptyUserID
	}
	if !pref.Category.Valid() {
		return model.ErrInvalidCategory
	}

	tags := pref.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := p.db.conn.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, category, tags, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, category) DO UPDATE SET
			tags = excluded.tags,
			updated_at = excluded.updated_at
	`, pref.UserID, string(pref.Category), pq.Array(tags), p.db.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
