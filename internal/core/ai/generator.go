package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lifestyle-recommender/internal/core/ai/provider"
	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/core/platform"
	"lifestyle-recommender/internal/core/recommend"
	"lifestyle-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrUnparsableOutput 模型輸出無法解析為候選陣列
var ErrUnparsableOutput = errors.New("unparsable generator output")

// Generator 以聊天模型產生推薦候選
type Generator struct {
	provider provider.Provider
	catalog  *platform.Catalog
}

// NewGenerator 創建生成器
func NewGenerator(p provider.Provider, catalog *platform.Catalog) *Generator {
	return &Generator{provider: p, catalog: catalog}
}

// Generate 組合提示詞、呼叫模型並解析候選
func (g *Generator) Generate(ctx context.Context, in recommend.GenerateInput) ([]model.Candidate, error) {
	if g.provider == nil {
		return nil, recommend.ErrGeneratorUnavailable
	}

	system, user := BuildPrompt(g.catalog, in)
	resp, err := g.provider.Generate(ctx, &provider.Request{
		Messages: []provider.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s recommendations: %w", in.Category, err)
	}

	candidates, err := ParseCandidates(resp.Content)
	if err != nil {
		common.LogWarn("無法解析模型輸出",
			zap.String("category", string(in.Category)),
			zap.String("model", g.provider.GetModel()),
			zap.Int("content_length", len(resp.Content)),
			zap.Error(err),
		)
		return nil, err
	}

	common.LogDebug("模型候選已解析",
		zap.String("category", string(in.Category)),
		zap.Int("requested", in.Count),
		zap.Int("parsed", len(candidates)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return candidates, nil
}

// ParseCandidates 取出模型輸出中的 JSON 陣列；鍵未加引號時修補後重試
func ParseCandidates(raw string) ([]model.Candidate, error) {
	arr, err := common.ExtractJSONArray(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableOutput, err)
	}

	var candidates []model.Candidate
	if err := common.ParseJSON(arr, &candidates); err != nil {
		candidates = nil
		if retryErr := common.ParseJSON(common.QuoteJSONKeys(arr), &candidates); retryErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsableOutput, err)
		}
	}

	out := candidates[:0]
	for _, c := range candidates {
		if strings.TrimSpace(c.Title) == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
