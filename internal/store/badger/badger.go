// Package badger 內嵌式 BadgerDB 歷史與偏好儲存
package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/pkg/common"
	"lifestyle-recommender/internal/store"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// 鍵前綴
const (
	historyKeyPrefix = "history:"
	prefKeyPrefix    = "pref:"
	historySeqKey    = "seq:history"
)

// Options 儲存設定
type Options struct {
	// Path 資料目錄；InMemory 時忽略
	Path     string
	InMemory bool
	// HistoryTTL 歷史保留時間，0 表示永久
	HistoryTTL time.Duration
}

// DB 包裝 BadgerDB
type DB struct {
	db   *badgerdb.DB
	seq  *badgerdb.Sequence
	opts Options
	now  func() time.Time
}

// Open 開啟資料庫
func Open(opts Options) (*DB, error) {
	bopts := badgerdb.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = zapLogger{}

	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(historySeqKey), 100)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history sequence: %w", err)
	}

	common.LogInfo("Badger 儲存已開啟", zap.String("path", opts.Path), zap.Bool("in_memory", opts.InMemory))
	return &DB{db: db, seq: seq, opts: opts, now: time.Now}, nil
}

// Close 釋放序號並關閉資料庫
func (d *DB) Close() error {
	var errs []error
	if err := d.seq.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release sequence: %w", err))
	}
	if err := d.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close badger: %w", err))
	}
	return errors.Join(errs...)
}

// History 推薦歷史檢視
func (d *DB) History() *History {
	return &History{d: d}
}

// Preferences 使用者偏好檢視
func (d *DB) Preferences() *Preferences {
	return &Preferences{d: d}
}

// historyPrefix 使用者 ID 經過跳脫，避免 ':' 造成前綴碰撞
func historyPrefix(userID string, category model.Category) []byte {
	return []byte(historyKeyPrefix + url.QueryEscape(userID) + ":" + string(category) + ":")
}

// historyKey 序號反轉，前向迭代即為新到舊
func historyKey(userID string, category model.Category, n uint64) []byte {
	return append(historyPrefix(userID, category), fmt.Sprintf("%020d", math.MaxUint64-n)...)
}

func prefKey(userID string, category model.Category) []byte {
	return []byte(prefKeyPrefix + url.QueryEscape(userID) + ":" + string(category))
}

// History 實作推薦歷史讀寫
type History struct {
	d *DB
}

// Read 新到舊回傳最多 limit 筆
func (h *History) Read(_ context.Context, userID string, category model.Category, limit int) ([]model.HistoryEntry, error) {
	if err := store.ValidateRead(userID, category, limit); err != nil {
		return nil, err
	}

	entries := make([]model.HistoryEntry, 0, limit)
	err := h.d.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchSize = limit
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := historyPrefix(userID, category)
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(entries) < limit; it.Next() {
			var e model.HistoryEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("decode history: %w", err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// Write 於單一交易中寫入整批歷史
func (h *History) Write(_ context.Context, userID string, items []model.Item) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, store.ErrEmptyUserID
	}
	if len(items) == 0 {
		return []string{}, nil
	}

	entries := store.NewEntries(userID, items, h.d.now())
	seqs := make([]uint64, len(entries))
	for i := range entries {
		n, err := h.d.seq.Next()
		if err != nil {
			return nil, fmt.Errorf("next sequence: %w", err)
		}
		seqs[i] = n
	}

	err := h.d.db.Update(func(txn *badgerdb.Txn) error {
		for i, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal history: %w", err)
			}
			entry := badgerdb.NewEntry(historyKey(userID, e.Category, seqs[i]), data)
			if h.d.opts.HistoryTTL > 0 {
				entry = entry.WithTTL(h.d.opts.HistoryTTL)
			}
			if err := txn.SetEntry(entry); err != nil {
				return fmt.Errorf("set history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("write history: %w", err)
	}
	return store.EntryIDs(entries), nil
}

// Preferences 實作偏好讀取
type Preferences struct {
	d *DB
}

// Read 沒有偏好時回傳 nil
func (p *Preferences) Read(_ context.Context, userID string, category model.Category) (*model.UserPreference, error) {
	var pref model.UserPreference
	err := p.d.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(prefKey(userID, category))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &pref)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	return &pref, nil
}

// Save 新增或覆寫偏好標籤
func (p *Preferences) Save(_ context.Context, pref model.UserPreference) error {
	if strings.TrimSpace(pref.UserID) == "" {
		return store.ErrEmptyUserID
	}
	if !pref.Category.Valid() {
		return model.ErrInvalidCategory
	}

	data, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	return p.d.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(prefKey(pref.UserID, pref.Category), data)
	})
}

// zapLogger 將 badger 日誌導向共用 logger
type zapLogger struct{}

func (zapLogger) Errorf(format string, args ...interface{}) {
	common.LogError(strings.TrimSpace(fmt.Sprintf(format, args...)), zap.String("component", "badger"))
}

func (zapLogger) Warningf(format string, args ...interface{}) {
	common.LogWarn(strings.TrimSpace(fmt.Sprintf(format, args...)), zap.String("component", "badger"))
}

func (zapLogger) Infof(format string, args ...interface{}) {
	common.LogDebug(strings.TrimSpace(fmt.Sprintf(format, args...)), zap.String("component", "badger"))
}

func (zapLogger) Debugf(format string, args ...interface{}) {
	common.LogDebug(strings.TrimSpace(fmt.Sprintf(format, args...)), zap.String("component", "badger"))
}
