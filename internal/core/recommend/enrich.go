package recommend

import (
	"strings"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/core/platform"
)

// Enricher 類別專屬的候選後處理，在平台選擇前套用
type Enricher func(item model.Item, locale model.Locale) model.Item

// 旅遊項目類型
const (
	TravelTypeLodging    = platform.TravelTypeLodging
	TravelTypeAttraction = "attraction"
)

var lodgingKeywords = []string{
	"酒店", "民宿", "客栈", "宾馆", "旅馆", "度假村", "青旅", "住宿",
	"hotel", "hostel", "lodging", "resort", "ryokan", "motel", "inn", "lodge", "b&b", "bnb", "guesthouse", "airbnb",
}

// isLodgingText 標題或標籤是否描述住宿
func isLodgingText(item model.Item) bool {
	fields := append([]string{item.Title, item.Query()}, item.Tags...)
	for _, f := range fields {
		lower := strings.ToLower(f)
		for _, kw := range lodgingKeywords {
			if containsWord(lower, kw) {
				return true
			}
		}
	}
	return false
}

// containsWord 中文關鍵字直接包含；英文關鍵字要求單字邊界，避免 "inn" 命中 "dinner"
func containsWord(s, kw string) bool {
	if kw[0] >= 0x80 {
		return strings.Contains(s, kw)
	}
	for start := 0; ; {
		i := strings.Index(s[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)
		before := i == 0 || !isASCIIAlnum(s[i-1])
		after := end == len(s) || !isASCIIAlnum(s[end])
		if before && after {
			return true
		}
		start = i + 1
	}
}

func isASCIIAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// enrichTravel 標記住宿或景點，供住宿專屬的查詢補強規則使用
func enrichTravel(item model.Item, _ model.Locale) model.Item {
	if item.Metadata == nil {
		item.Metadata = map[string]interface{}{}
	}
	if _, ok := item.Metadata[model.MetaTravelType]; ok {
		return item
	}
	if isLodgingText(item) {
		item.Metadata[model.MetaTravelType] = TravelTypeLodging
	} else {
		item.Metadata[model.MetaTravelType] = TravelTypeAttraction
	}
	return item
}

// DefaultEnrichers 內建的類別後處理
func DefaultEnrichers() map[model.Category]Enricher {
	return map[model.Category]Enricher{
		model.CategoryTravel: enrichTravel,
	}
}

// applyEnricher 套用後處理並保證類別、子類型與必要欄位不被改動
func applyEnricher(fn Enricher, item model.Item, locale model.Locale) model.Item {
	if fn == nil {
		return item
	}
	out := fn(item.Clone(), locale)
	out.Category = item.Category
	out.SubType = item.SubType
	if strings.TrimSpace(out.Title) == "" {
		out.Title = item.Title
	}
	if strings.TrimSpace(out.SearchQuery) == "" {
		out.SearchQuery = item.SearchQuery
	}
	if out.Metadata == nil {
		out.Metadata = map[string]interface{}{}
	}
	return out
}
