package recommend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/core/platform"
	"lifestyle-recommender/internal/core/queue"
)

// fakeGenerator 可設定回傳值或錯誤的生成器
type fakeGenerator struct {
	mu         sync.Mutex
	candidates []model.Candidate
	err        error
	delay      time.Duration
	panicMsg   string
	calls      int
	lastInput  GenerateInput
}

func (g *fakeGenerator) Generate(ctx context.Context, in GenerateInput) ([]model.Candidate, error) {
	g.mu.Lock()
	g.calls++
	g.lastInput = in
	g.mu.Unlock()

	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.candidates, g.err
}

// spyCache 記錄 Get/Set 次數
type spyCache struct {
	mu      sync.Mutex
	entries map[string][]model.Item
	gets    int
	sets    int
	lastTTL time.Duration
}

func newSpyCache() *spyCache {
	return &spyCache{entries: map[string][]model.Item{}}
}

func (c *spyCache) key(cat model.Category, fp string) string { return string(cat) + ":" + fp }

func (c *spyCache) Get(_ context.Context, cat model.Category, fp string) ([]model.Item, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	items, ok := c.entries[c.key(cat, fp)]
	return items, ok, nil
}

func (c *spyCache) Set(_ context.Context, cat model.Category, fp string, items []model.Item, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.lastTTL = ttl
	c.entries[c.key(cat, fp)] = items
	return nil
}

func (c *spyCache) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets, c.sets
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []model.HistoryEntry
	written map[string][]model.Item
	err     error
}

func (h *fakeHistory) Read(_ context.Context, userID string, cat model.Category, limit int) ([]model.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries, nil
}

func (h *fakeHistory) Write(_ context.Context, userID string, items []model.Item) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	if h.written == nil {
		h.written = map[string][]model.Item{}
	}
	h.written[userID] = append(h.written[userID], items...)
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = fmt.Sprintf("%s-%d", userID, i)
	}
	return ids, nil
}

type fakePrefs map[string][]string

func (p fakePrefs) Read(_ context.Context, userID string, cat model.Category) (*model.UserPreference, error) {
	tags, ok := p[userID]
	if !ok {
		return nil, nil
	}
	return &model.UserPreference{UserID: userID, Category: cat, Tags: tags}, nil
}

// syncSubmitter 同步執行任務，讓測試可以直接斷言持久化結果
type syncSubmitter struct {
	mu    sync.Mutex
	tasks []string
	errs  []error
}

func (s *syncSubmitter) Submit(task queue.Task) error {
	err := task.Run(context.Background())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task.Kind)
	if err != nil {
		s.errs = append(s.errs, err)
	}
	return nil
}

func entertainmentCandidates() []model.Candidate {
	return []model.Candidate{
		{Title: "Video A", Type: "video", Platform: "YouTube", Tags: []string{"sci-fi"}},
		{Title: "Video B", Type: "movie", Platform: "Netflix"},
		{Title: "Video C", Type: "video"},
		{Title: "Game A", Type: "game", Platform: "Steam"},
		{Title: "Song A", Type: "music", Platform: "spotify"},
		{Title: "Review A", Type: "review", Platform: "IMDb"},
		{Title: "Video D", Type: "video"},
	}
}

func assertWellFormed(t *testing.T, items []model.Item, locale model.Locale) {
	t.Helper()
	c := platform.NewCatalog()
	for _, it := range items {
		if it.Link == "" {
			t.Errorf("%q: empty link", it.Title)
			continue
		}
		u, err := url.Parse(it.Link)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			t.Errorf("%q: invalid link %q", it.Title, it.Link)
		}
		if !it.LinkType.Valid() {
			t.Errorf("%q: invalid linkType %q", it.Title, it.LinkType)
		}
		allowed := c.Allowed(it.Category, it.SubType, locale)
		if !contains(allowed, it.Platform) {
			t.Errorf("%q: platform %q not in %v", it.Title, it.Platform, allowed)
		}
		if it.LinkType != platform.LinkTypeFor(it.Category, it.Platform) {
			t.Errorf("%q: linkType %q inconsistent with platform %q", it.Title, it.LinkType, it.Platform)
		}
		if it.MetaString(model.MetaSearchQuery) == "" {
			t.Errorf("%q: metadata.searchQuery missing", it.Title)
		}
		if _, ok := it.Metadata[model.MetaIsSearchLink].(bool); !ok {
			t.Errorf("%q: metadata.isSearchLink missing", it.Title)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestRecommend_AIPathShapesAndFillsCache(t *testing.T) {
	gen := &fakeGenerator{candidates: entertainmentCandidates()}
	cache := newSpyCache()
	hist := &fakeHistory{}
	sub := &syncSubmitter{}

	o := NewOrchestrator(Options{CacheTTL: 30 * time.Minute}, Deps{
		Generator: gen, Cache: cache, History: hist, Persister: sub, Rand: NewRand(1),
	})

	resp, err := o.Recommend(context.Background(), model.Request{
		Category: model.CategoryEntertainment, Locale: model.LocaleEN, UserID: "u1", Count: 5,
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !resp.Success || resp.Source != model.SourceAI || resp.Error != "" {
		t.Fatalf("resp = %+v, want successful ai response", resp)
	}
	if len(resp.Recommendations) != 5 {
		t.Fatalf("len = %d, want 5", len(resp.Recommendations))
	}

	want := []model.SubType{model.SubTypeVideo, model.SubTypeGame, model.SubTypeMusic, model.SubTypeReview}
	for i, st := range want {
		if resp.Recommendations[i].SubType != st {
			t.Errorf("item %d subType = %q, want %q", i, resp.Recommendations[i].SubType, st)
		}
	}
	assertWellFormed(t, resp.Recommendations, model.LocaleEN)

	if _, sets := cache.counts(); sets != 1 {
		t.Errorf("cache sets = %d, want 1", sets)
	}
	if cache.lastTTL != 30*time.Minute {
		t.Errorf("cache ttl = %v, want 30m", cache.lastTTL)
	}
	if got := len(hist.written["u1"]); got != 5 {
		t.Errorf("history written = %d, want 5", got)
	}
	if gen.lastInput.Count < 5 {
		t.Errorf("generator asked for %d candidates, want at least the requested count", gen.lastInput.Count)
	}
}

func TestRecommend_SuggestedPlatformIsKept(t *testing.T) {
	gen := &fakeGenerator{candidates: []model.Candidate{{Title: "Song A", Type: "music", Platform: "spotify"}}}
	o := NewOrchestrator(Options{}, Deps{Generator: gen, Persister: &syncSubmitter{}, Rand: NewRand(1)})

	resp, _ := o.Recommend(context.Background(), model.Request{Category: model.CategoryEntertainment, Locale: model.LocaleEN, Count: 1})
	it := resp.Recommendations[0]
	if it.Platform != "Spotify" || it.LinkType != model.LinkMusic {
		t.Errorf("platform/linkType = %s/%s, want Spotify/music", it.Platform, it.LinkType)
	}
	if it.MetaString(model.MetaOriginalPlatform) != "spotify" {
		t.Errorf("originalPlatform = %q, want spotify", it.MetaString(model.MetaOriginalPlatform))
	}
}

func TestRecommend_FitnessZhFallbackScenario(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream exploded")}
	o := NewOrchestrator(Options{FitnessVenues: true}, Deps{
		Generator: gen, History: &fakeHistory{}, Persister: &syncSubmitter{}, Rand: NewRand(5),
	})

	resp, err := o.Recommend(context.Background(), model.Request{
		Category: model.CategoryFitness, Locale: model.LocaleZH, UserID: "u1", Count: 3,
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !resp.Success || resp.Source != model.SourceFallback {
		t.Fatalf("resp = %+v, want successful fallback", resp)
	}
	if resp.Error == "" {
		t.Error("fallback response should carry an advisory message")
	}
	if len(resp.Recommendations) != 3 {
		t.Fatalf("len = %d, want 3", len(resp.Recommendations))
	}

	cnFitness := map[string]bool{}
	c := platform.NewCatalog()
	for _, st := range model.CategoryFitness.SubTypes() {
		b, _ := c.Bucket(model.RegionCN, model.CategoryFitness, st)
		for _, p := range b.Platforms {
			cnFitness[p] = true
		}
	}

	seen := map[model.SubType]bool{}
	for _, it := range resp.Recommendations {
		seen[it.SubType] = true
		if !cnFitness[it.Platform] {
			t.Errorf("%q: platform %q not in CN fitness rotation", it.Title, it.Platform)
		}
	}
	for _, st := range RequiredSubTypes(model.CategoryFitness, true) {
		if !seen[st] {
			t.Errorf("missing required sub-type %q", st)
		}
	}
	assertWellFormed(t, resp.Recommendations, model.LocaleZH)
}

func TestRecommend_FallbackWaterfall(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{"not configured", nil},
		{"error", &fakeGenerator{err: errors.New("boom")}},
		{"empty", &fakeGenerator{}},
		{"panic", &fakeGenerator{panicMsg: "kaboom"}},
		{"timeout", &fakeGenerator{delay: time.Second, candidates: entertainmentCandidates()}},
		{"all filtered", &fakeGenerator{candidates: []model.Candidate{{Title: "   "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newSpyCache()
			o := NewOrchestrator(Options{GeneratorTimeout: 20 * time.Millisecond}, Deps{
				Generator: tt.gen, Cache: cache, Persister: &syncSubmitter{}, Rand: NewRand(2),
			})

			resp, err := o.Recommend(context.Background(), model.Request{
				Category: model.CategoryShopping, Locale: model.LocaleZH, UserID: "u2", Count: 4,
			})
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if !resp.Success || resp.Source != model.SourceFallback {
				t.Fatalf("resp = %+v, want successful fallback", resp)
			}
			if len(resp.Recommendations) == 0 || len(resp.Recommendations) > 4 {
				t.Errorf("len = %d, want 1..4", len(resp.Recommendations))
			}
			if _, sets := cache.counts(); sets != 0 {
				t.Errorf("fallback batch must not be cached, sets = %d", sets)
			}
			assertWellFormed(t, resp.Recommendations, model.LocaleZH)
		})
	}
}

func TestRecommend_AnonymousBypassesCache(t *testing.T) {
	cache := newSpyCache()
	gen := &fakeGenerator{candidates: entertainmentCandidates()}
	o := NewOrchestrator(Options{}, Deps{Generator: gen, Cache: cache, Persister: &syncSubmitter{}})

	for i := 0; i < 2; i++ {
		resp, err := o.Recommend(context.Background(), model.Request{
			Category: model.CategoryEntertainment, Locale: model.LocaleEN, Count: 3,
		})
		if err != nil || resp.Source != model.SourceAI {
			t.Fatalf("request %d: resp = %+v, err = %v", i, resp, err)
		}
	}

	if gets, sets := cache.counts(); gets != 0 || sets != 0 {
		t.Errorf("anonymous requests touched cache: gets = %d, sets = %d", gets, sets)
	}
}

func TestRecommend_CacheHitIsShuffledAndTruncated(t *testing.T) {
	cache := newSpyCache()
	prefs := fakePrefs{"u1": {"sci-fi"}}
	fp := Fingerprint(&model.UserPreference{Tags: []string{"sci-fi"}})

	var cached []model.Item
	for i := 0; i < 6; i++ {
		cached = append(cached, model.Item{Title: fmt.Sprintf("Cached %d", i), Category: model.CategoryFood})
	}
	_ = cache.Set(context.Background(), model.CategoryFood, fp, cached, time.Minute)

	gen := &fakeGenerator{candidates: entertainmentCandidates()}
	o := NewOrchestrator(Options{}, Deps{Generator: gen, Cache: cache, Preferences: prefs, Rand: NewRand(11)})

	resp, err := o.Recommend(context.Background(), model.Request{Category: model.CategoryFood, UserID: "u1", Count: 4})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Source != model.SourceCache {
		t.Fatalf("source = %q, want cache", resp.Source)
	}
	if len(resp.Recommendations) != 4 {
		t.Errorf("len = %d, want 4", len(resp.Recommendations))
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times on cache hit", gen.calls)
	}

	// 回傳的是副本，不影響快取內容
	resp.Recommendations[0].Title = "mutated"
	for _, it := range cached {
		if it.Title == "mutated" {
			t.Error("cache entry was mutated through the response")
		}
	}
}

func TestRecommend_SkipCacheForcesRefresh(t *testing.T) {
	cache := newSpyCache()
	_ = cache.Set(context.Background(), model.CategoryEntertainment, NoPreference, []model.Item{{Title: "old"}}, time.Minute)
	gen := &fakeGenerator{candidates: entertainmentCandidates()}
	o := NewOrchestrator(Options{}, Deps{Generator: gen, Cache: cache, Persister: &syncSubmitter{}})

	resp, _ := o.Recommend(context.Background(), model.Request{
		Category: model.CategoryEntertainment, UserID: "u1", Count: 2, SkipCache: true,
	})
	if resp.Source != model.SourceAI {
		t.Errorf("source = %q, want ai", resp.Source)
	}
	if gets, _ := cache.counts(); gets != 0 {
		t.Errorf("skipCache request read cache %d times", gets)
	}
}

func TestRecommend_CountIsClamped(t *testing.T) {
	gen := &fakeGenerator{}
	for i := 0; i < 30; i++ {
		gen.candidates = append(gen.candidates, model.Candidate{Title: fmt.Sprintf("Item %d", i)})
	}
	o := NewOrchestrator(Options{}, Deps{Generator: gen, Persister: &syncSubmitter{}})

	tests := []struct {
		requested int
		want      int
	}{
		{50, 10},
		{0, 1},
		{-3, 1},
		{7, 7},
	}
	for _, tt := range tests {
		resp, _ := o.Recommend(context.Background(), model.Request{Category: model.CategoryShopping, Count: tt.requested})
		if len(resp.Recommendations) != tt.want {
			t.Errorf("count %d: len = %d, want %d", tt.requested, len(resp.Recommendations), tt.want)
		}
	}
}

func TestRecommend_NoDuplicatesAgainstHistory(t *testing.T) {
	hist := &fakeHistory{entries: []model.HistoryEntry{{Title: "Video A"}, {Title: "game a"}}}
	gen := &fakeGenerator{candidates: entertainmentCandidates()}
	o := NewOrchestrator(Options{DedupMode: model.DedupStrict}, Deps{
		Generator: gen, History: hist, Persister: &syncSubmitter{},
	})

	resp, _ := o.Recommend(context.Background(), model.Request{
		Category: model.CategoryEntertainment, UserID: "u1", Count: 10, ExcludeTitles: []string{"Song A"},
	})
	for _, it := range resp.Recommendations {
		switch it.Title {
		case "Video A", "Game A", "Song A":
			t.Errorf("excluded item %q returned", it.Title)
		}
	}
	if len(resp.Recommendations) != 4 {
		t.Errorf("len = %d, want 4 remaining candidates", len(resp.Recommendations))
	}
}

// recordingHistory 讀回先前寫入的項目，模擬真實儲存
type recordingHistory struct {
	mu      sync.Mutex
	entries map[string][]model.HistoryEntry
}

func (h *recordingHistory) Read(_ context.Context, userID string, cat model.Category, _ int) ([]model.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []model.HistoryEntry
	for _, e := range h.entries[userID] {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out, nil
}

func (h *recordingHistory) Write(_ context.Context, userID string, items []model.Item) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.entries == nil {
		h.entries = map[string][]model.HistoryEntry{}
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = fmt.Sprintf("%s-%d", userID, len(h.entries[userID]))
		h.entries[userID] = append(h.entries[userID], model.HistoryEntry{
			ID: ids[i], UserID: userID, Category: it.Category, Title: it.Title, SearchQuery: it.Query(),
		})
	}
	return ids, nil
}

func TestRecommend_CacheHitSkipsSeenItems(t *testing.T) {
	gen := &fakeGenerator{}
	for i := 0; i < 6; i++ {
		gen.candidates = append(gen.candidates, model.Candidate{Title: fmt.Sprintf("Gadget %d", i)})
	}
	cache := newSpyCache()
	hist := &recordingHistory{}
	o := NewOrchestrator(Options{}, Deps{
		Generator: gen, Cache: cache, History: hist, Persister: &syncSubmitter{}, Rand: NewRand(5),
	})
	req := model.Request{Category: model.CategoryShopping, Locale: model.LocaleEN, UserID: "u1", Count: 3}

	first, err := o.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("first Recommend() error = %v", err)
	}
	if first.Source != model.SourceAI || len(first.Recommendations) != 3 {
		t.Fatalf("first = %s/%d, want ai/3", first.Source, len(first.Recommendations))
	}

	second, err := o.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("second Recommend() error = %v", err)
	}
	if second.Source == model.SourceCache {
		t.Errorf("second request served the already-seen cached batch")
	}
	if len(second.Recommendations) == 0 {
		t.Fatal("second request returned nothing")
	}

	seen := map[string]bool{}
	for _, it := range first.Recommendations {
		seen[it.Title] = true
	}
	for _, it := range second.Recommendations {
		if seen[it.Title] {
			t.Errorf("item %q repeated from the caller's history", it.Title)
		}
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
}

func TestRecommend_CacheHitFiltersHistoryAndExcludes(t *testing.T) {
	cache := newSpyCache()
	var cached []model.Item
	for i := 0; i < 5; i++ {
		cached = append(cached, model.Item{Title: fmt.Sprintf("Dish %d", i), Category: model.CategoryFood})
	}
	_ = cache.Set(context.Background(), model.CategoryFood, NoPreference, cached, time.Minute)

	hist := &fakeHistory{entries: []model.HistoryEntry{{Title: "Dish 0"}, {Title: "dish 1"}}}
	gen := &fakeGenerator{candidates: entertainmentCandidates()}
	o := NewOrchestrator(Options{}, Deps{Generator: gen, Cache: cache, History: hist, Rand: NewRand(3)})

	resp, err := o.Recommend(context.Background(), model.Request{
		Category: model.CategoryFood, UserID: "u1", Count: 5, ExcludeTitles: []string{"Dish 2"},
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Source != model.SourceCache {
		t.Fatalf("source = %q, want cache", resp.Source)
	}
	if len(resp.Recommendations) != 2 {
		t.Errorf("len = %d, want 2 unseen cached items", len(resp.Recommendations))
	}
	for _, it := range resp.Recommendations {
		switch it.Title {
		case "Dish 0", "Dish 1", "Dish 2":
			t.Errorf("cache hit returned seen or excluded item %q", it.Title)
		}
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times on a usable cache hit", gen.calls)
	}
}

func TestRecommend_InvalidCategory(t *testing.T) {
	gen := &fakeGenerator{}
	o := NewOrchestrator(Options{}, Deps{Generator: gen})

	_, err := o.Recommend(context.Background(), model.Request{Category: "movies"})
	if !errors.Is(err, model.ErrInvalidCategory) {
		t.Errorf("err = %v, want ErrInvalidCategory", err)
	}
	if gen.calls != 0 {
		t.Error("pipeline must not run for an invalid category")
	}
}

func TestRecommend_PersistFailureDoesNotAffectResponse(t *testing.T) {
	hist := &fakeHistory{err: errors.New("db down")}
	sub := &syncSubmitter{}
	o := NewOrchestrator(Options{}, Deps{
		Generator: &fakeGenerator{candidates: entertainmentCandidates()}, History: hist, Persister: sub,
	})

	resp, err := o.Recommend(context.Background(), model.Request{Category: model.CategoryEntertainment, UserID: "u1", Count: 3})
	if err != nil || !resp.Success {
		t.Fatalf("resp = %+v, err = %v", resp, err)
	}
	if len(sub.errs) != 1 {
		t.Errorf("recorded persist errors = %d, want 1", len(sub.errs))
	}
}

func TestRecommend_PersistRunsThroughQueue(t *testing.T) {
	hist := &fakeHistory{}
	q := queue.NewManager(queue.Options{Workers: 1, MaxSize: 8})
	o := NewOrchestrator(Options{}, Deps{
		Generator: &fakeGenerator{candidates: entertainmentCandidates()}, History: hist, Persister: q,
	})

	if _, err := o.Recommend(context.Background(), model.Request{Category: model.CategoryEntertainment, UserID: "u9", Count: 2}); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	hist.mu.Lock()
	defer hist.mu.Unlock()
	if len(hist.written["u9"]) != 2 {
		t.Errorf("history written = %d, want 2", len(hist.written["u9"]))
	}
}

func TestRecommend_TravelLodgingGetsBookingQualifier(t *testing.T) {
	gen := &fakeGenerator{candidates: []model.Candidate{
		{Title: "Kyoto ryokan", Platform: "Google Maps"},
		{Title: "Fushimi Inari", Platform: "Google Maps"},
	}}
	o := NewOrchestrator(Options{}, Deps{Generator: gen, Persister: &syncSubmitter{}})

	resp, _ := o.Recommend(context.Background(), model.Request{Category: model.CategoryTravel, Locale: model.LocaleEN, Count: 2})
	for _, it := range resp.Recommendations {
		u, _ := url.Parse(it.Link)
		q := u.Query().Get("query")
		switch it.Title {
		case "Kyoto ryokan":
			if q != "Kyoto ryokan hotel" {
				t.Errorf("lodging query = %q", q)
			}
		case "Fushimi Inari":
			if q != "Fushimi Inari" {
				t.Errorf("attraction query = %q", q)
			}
		}
	}
}
