package platform

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"lifestyle-recommender/internal/core/model"
)

// Selector 為每個推薦項目選擇目的地平台
type Selector struct {
	catalog *Catalog
}

// NewSelector 創建平台選擇器
func NewSelector(catalog *Catalog) *Selector {
	return &Selector{catalog: catalog}
}

// Choose 選擇平台。
// suggested 命中分桶（完全或模糊包含）時優先採用；否則分桶可輪替且 index >= 0
// 時依 index 輪替，其餘取分桶第一個。沒有分桶時回傳該語系的通用搜尋引擎。
func (s *Selector) Choose(category model.Category, subType model.SubType, locale model.Locale, suggested string, index int) string {
	bucket, ok := s.catalog.Bucket(locale.Region(), category, subType)
	if !ok || len(bucket.Platforms) == 0 {
		return s.catalog.Generic(locale).Name
	}

	if name, ok := s.match(bucket, suggested); ok {
		return name
	}

	if bucket.Rotate && index >= 0 {
		return bucket.Platforms[index%len(bucket.Platforms)]
	}
	return bucket.Platforms[0]
}

// match 先比對正式名稱與別名，再做以字詞邊界為準的包含式模糊比對並取最長命中
func (s *Selector) match(bucket Bucket, suggested string) (string, bool) {
	sug := strings.ToLower(strings.TrimSpace(suggested))
	if sug == "" {
		return "", false
	}

	if name, ok := s.catalog.lookupName(sug); ok {
		for _, p := range bucket.Platforms {
			if p == name {
				return p, true
			}
		}
	}

	best, bestLen := "", 0
	for _, name := range bucket.Platforms {
		p, ok := s.catalog.Platform(name)
		if !ok {
			continue
		}
		for _, token := range append([]string{strings.ToLower(p.Name)}, p.Aliases...) {
			if len(token) <= bestLen {
				continue
			}
			if containsWord(sug, token) || (len(sug) >= 4 && containsWord(token, sug)) {
				best, bestLen = name, len(token)
			}
		}
	}
	return best, best != ""
}

// containsWord 判斷 sub 是否以完整字詞出現在 s 中。
// 只有兩側相鄰字元都是 ASCII 字母或數字時才視為黏在一起，中文別名仍可直接包含。
func containsWord(s, sub string) bool {
	if sub == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(sub)
	last, _ := utf8.DecodeLastRuneInString(sub)

	for from := 0; from < len(s); {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(sub)

		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before) || !isWordRune(first)) &&
			(end == len(s) || !isWordRune(after) || !isWordRune(last)) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
