package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"lifestyle-recommender/internal/core/model"
)

// NoPreference 無偏好使用者共用的快取分區
const NoPreference = "none"

const fingerprintLen = 16

var folder = cases.Fold()

// normalizeTag NFKC 正規化、大小寫折疊、壓縮內部空白
func normalizeTag(s string) string {
	s = folder.String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTags 正規化、去空、去重並排序
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := normalizeTag(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Fingerprint 由偏好標籤產生穩定短雜湊；nil 或無標籤時回傳 NoPreference
func Fingerprint(pref *model.UserPreference) string {
	if pref == nil {
		return NoPreference
	}
	tags := NormalizeTags(pref.Tags)
	if len(tags) == 0 {
		return NoPreference
	}
	sum := sha256.Sum256([]byte(strings.Join(tags, "|")))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// signature 標題去重用：正規化後只保留字母與數字
func signature(s string) string {
	s = folder.String(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
