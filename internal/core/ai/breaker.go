package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/core/recommend"
	"lifestyle-recommender/internal/infrastructure/metrics"
	"lifestyle-recommender/internal/pkg/common"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerOptions 熔斷器設定
type BreakerOptions struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// BreakerGenerator 以熔斷器包裝生成器；開啟期間直接回傳 ErrGeneratorUnavailable
type BreakerGenerator struct {
	next recommend.Generator
	cb   *gobreaker.CircuitBreaker[[]model.Candidate]
	name string
}

// NewBreakerGenerator 創建帶熔斷的生成器
func NewBreakerGenerator(next recommend.Generator, opts BreakerOptions) *BreakerGenerator {
	if opts.Name == "" {
		opts.Name = "generator"
	}
	if opts.MinRequests == 0 {
		opts.MinRequests = 5
	}
	if opts.FailureRatio <= 0 {
		opts.FailureRatio = 0.6
	}

	metrics.BreakerState.WithLabelValues(opts.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]model.Candidate](gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: opts.MaxRequests,
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < opts.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= opts.FailureRatio {
				common.LogWarn("生成器熔斷開啟",
					zap.Uint32("failures", counts.TotalFailures),
					zap.Float64("failure_ratio", ratio),
				)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogInfo("熔斷器狀態變更",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerGenerator{next: next, cb: cb, name: opts.Name}
}

// Generate 經由熔斷器呼叫下游生成器
func (b *BreakerGenerator) Generate(ctx context.Context, in recommend.GenerateInput) ([]model.Candidate, error) {
	candidates, err := b.cb.Execute(func() ([]model.Candidate, error) {
		return b.next.Generate(ctx, in)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", recommend.ErrGeneratorUnavailable, err)
		}
		return nil, err
	}
	return candidates, nil
}

// State 目前熔斷狀態
func (b *BreakerGenerator) State() gobreaker.State {
	return b.cb.State()
}

// stateToFloat 熔斷狀態轉為指標數值
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
