package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lifestyle-recommender/internal/infrastructure/metrics"
	"lifestyle-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull 隊列已滿，任務被丟棄
	ErrQueueFull = errors.New("queue is full")
	// ErrClosed 隊列已關閉
	ErrClosed = errors.New("queue manager is closed")
)

// Task 背景任務；Kind 用於日誌與指標
type Task struct {
	Kind string
	Run  func(ctx context.Context) error
}

// Failure 任務失敗紀錄，經由 Errors() 對外發布
type Failure struct {
	Kind string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	FailedCount    int64 `json:"failed_count"`
	DroppedCount   int64 `json:"dropped_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Options 隊列設定
type Options struct {
	Workers    int
	MaxSize    int
	JobTimeout time.Duration
	// ErrorBuffer 錯誤通道容量；滿了之後新的失敗只記日誌
	ErrorBuffer int
}

// Manager 非同步持久化隊列：Submit 不阻塞，失敗只記錄、不重試
type Manager struct {
	opts   Options
	queue  chan Task
	errs   chan Failure
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	processed int64
	failed    int64
	dropped   int64
}

// NewManager 創建並啟動隊列管理器
func NewManager(opts Options) *Manager {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 64
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 10 * time.Second
	}
	if opts.ErrorBuffer <= 0 {
		opts.ErrorBuffer = 64
	}

	m := &Manager{
		opts:  opts,
		queue: make(chan Task, opts.MaxSize),
		errs:  make(chan Failure, opts.ErrorBuffer),
	}
	for i := 0; i < opts.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	return m
}

// Submit 將任務加入隊列；隊列滿或已關閉時立即回傳錯誤
func (m *Manager) Submit(task Task) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	select {
	case m.queue <- task:
		metrics.QueueDepth.Set(float64(len(m.queue)))
		return nil
	default:
		atomic.AddInt64(&m.dropped, 1)
		metrics.PersistTasks.WithLabelValues(task.Kind, "dropped").Inc()
		common.LogWarn("持久化隊列已滿，丟棄任務",
			zap.String("kind", task.Kind),
			zap.Int("max_queue_size", m.opts.MaxSize),
		)
		return ErrQueueFull
	}
}

// Errors 任務失敗通道
func (m *Manager) Errors() <-chan Failure {
	return m.errs
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for task := range m.queue {
		metrics.QueueDepth.Set(float64(len(m.queue)))
		m.run(id, task)
	}
}

func (m *Manager) run(id int, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.JobTimeout)
	defer cancel()

	err := safeRun(ctx, task)
	atomic.AddInt64(&m.processed, 1)
	if err == nil {
		metrics.PersistTasks.WithLabelValues(task.Kind, "ok").Inc()
		return
	}

	atomic.AddInt64(&m.failed, 1)
	metrics.PersistTasks.WithLabelValues(task.Kind, "failed").Inc()
	common.LogError("持久化任務失敗",
		zap.Int("worker", id),
		zap.String("kind", task.Kind),
		zap.Error(err),
	)

	select {
	case m.errs <- Failure{Kind: task.Kind, Err: err}:
	default:
	}
}

func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	if task.Run == nil {
		return nil
	}
	return task.Run(ctx)
}

// Status 獲取隊列狀態
func (m *Manager) Status() Status {
	return Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		FailedCount:    atomic.LoadInt64(&m.failed),
		DroppedCount:   atomic.LoadInt64(&m.dropped),
		MaxQueueSize:   m.opts.MaxSize,
		Workers:        m.opts.Workers,
	}
}

// Close 停止接收新任務並等待已排隊任務完成；ctx 到期時提前返回
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
