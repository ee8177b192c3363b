package recommend

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"lifestyle-recommender/internal/core/model"
)

// RNG 可注入的亂數來源；測試使用固定種子
type RNG interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// LockedRand 併發安全的 *rand.Rand
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand 以種子建立亂數來源
func NewRand(seed int64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewSource(seed))} //nolint:gosec // 推薦排序不需要密碼學亂數
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *LockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

var defaultRand = NewRand(time.Now().UnixNano())

// loosePenalty 寬鬆模式下命中歷史的扣分，大於任何可能的標籤重疊數
const loosePenalty = 1 << 20

// SelectOptions 去重選取參數
type SelectOptions struct {
	Count         int
	History       []model.HistoryEntry
	ExcludeTitles []string
	// Siblings 同批次已選的項目，任何模式下都硬排除
	Siblings       []model.Item
	Mode           model.DedupMode
	PreferenceTags []string
	Rand           RNG
}

func (o SelectOptions) rng() RNG {
	if o.Rand != nil {
		return o.Rand
	}
	return defaultRand
}

type scored struct {
	item  model.Item
	score int
	tie   float64
}

// sigOf 去重簽章；簽章為空（全是標點）時退回小寫原文
func sigOf(s string) string {
	if sig := signature(s); sig != "" {
		return sig
	}
	return strings.ToLower(strings.TrimSpace(s))
}

type sigSet map[string]struct{}

func (s sigSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s sigSet) has(v string) bool {
	if v == "" {
		return false
	}
	_, ok := s[v]
	return ok
}

func (s sigSet) addItem(it model.Item) {
	s.add(sigOf(it.Title))
	s.add(sigOf(it.Query()))
}

func (s sigSet) hasItem(it model.Item) bool {
	return s.has(sigOf(it.Title)) || s.has(sigOf(it.Query()))
}

// exclusions 由歷史與排除清單建立簽章集合
func exclusions(history []model.HistoryEntry, excludeTitles []string) sigSet {
	set := make(sigSet, len(history)*2+len(excludeTitles))
	for _, h := range history {
		set.add(sigOf(h.Title))
		set.add(sigOf(h.SearchQuery))
	}
	for _, t := range excludeTitles {
		set.add(sigOf(t))
	}
	return set
}

func overlap(tags []string, pref map[string]struct{}) int {
	if len(pref) == 0 {
		return 0
	}
	n := 0
	for _, t := range NormalizeTags(tags) {
		if _, ok := pref[t]; ok {
			n++
		}
	}
	return n
}

func prefSet(tags []string) map[string]struct{} {
	norm := NormalizeTags(tags)
	set := make(map[string]struct{}, len(norm))
	for _, t := range norm {
		set[t] = struct{}{}
	}
	return set
}

func sortScored(list []scored) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		return list[i].tie > list[j].tie
	})
}

// Select 從候選池中選出最多 Count 個不重複項目。
// 同批次兄弟項目與池內重複一律剔除；命中歷史或排除清單時，strict 模式剔除，
// loose 模式保留但排在所有未命中項目之後。排序依偏好標籤重疊數遞減，同分隨機。
func Select(pool []model.Item, opts SelectOptions) []model.Item {
	if opts.Count <= 0 || len(pool) == 0 {
		return []model.Item{}
	}

	excluded := exclusions(opts.History, opts.ExcludeTitles)
	seen := make(sigSet, len(pool)*2+len(opts.Siblings)*2)
	for _, s := range opts.Siblings {
		seen.addItem(s)
	}
	pref := prefSet(opts.PreferenceTags)
	rng := opts.rng()

	list := make([]scored, 0, len(pool))
	for _, it := range pool {
		if seen.hasItem(it) {
			continue
		}
		score := overlap(it.Tags, pref)
		if excluded.hasItem(it) {
			if opts.Mode != model.DedupLoose {
				continue
			}
			score -= loosePenalty
		}
		seen.addItem(it)
		list = append(list, scored{item: it, score: score, tie: rng.Float64()})
	}

	sortScored(list)

	n := opts.Count
	if n > len(list) {
		n = len(list)
	}
	out := make([]model.Item, n)
	for i := 0; i < n; i++ {
		out[i] = list[i].item
	}
	return out
}

// Rank 依偏好標籤重疊數排序整個候選池（不過濾），同分隨機
func Rank(pool []model.Item, preferenceTags []string, rng RNG) []model.Item {
	if rng == nil {
		rng = defaultRand
	}
	pref := prefSet(preferenceTags)
	list := make([]scored, len(pool))
	for i, it := range pool {
		list[i] = scored{item: it, score: overlap(it.Tags, pref), tie: rng.Float64()}
	}
	sortScored(list)
	out := make([]model.Item, len(list))
	for i := range list {
		out[i] = list[i].item
	}
	return out
}
