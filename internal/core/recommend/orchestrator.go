package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/core/platform"
	"lifestyle-recommender/internal/core/queue"
	"lifestyle-recommender/internal/infrastructure/metrics"
	"lifestyle-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// 每次回應的數量上下限
const (
	MinCount = 1
	MaxCount = 10
)

const (
	defaultCacheTTL         = 30 * time.Minute
	defaultGeneratorTimeout = 20 * time.Second
	defaultHistoryLimit     = 50
	// 向生成器多要一些候選，保留去重與多樣性的空間
	oversample    = 2
	maxGenerateN  = 20
	taskHistory   = "history"
	taskCacheFill = "cache"
)

var advisories = map[model.Locale]string{
	model.LocaleZH: "AI 推荐暂时不可用，已为你准备精选内容",
	model.LocaleEN: "AI recommendations are temporarily unavailable; showing curated picks",
}

// Options 推薦管線設定
type Options struct {
	DefaultLocale    model.Locale
	CacheTTL         time.Duration
	GeneratorTimeout time.Duration
	HistoryLimit     int
	DedupMode        model.DedupMode
	// MaxCount 可再壓低上限，不會超過 10
	MaxCount      int
	FitnessVenues bool
}

// Deps 外部協作者；除 Catalog 外皆可為 nil
type Deps struct {
	Generator   Generator
	History     HistoryStore
	Preferences PreferenceStore
	Cache       Cache
	Persister   Submitter
	Catalog     *platform.Catalog
	Enrichers   map[model.Category]Enricher
	Rand        RNG
}

// Orchestrator 推薦管線：CacheCheck → Generate → Shape → Persist(async) → Respond
type Orchestrator struct {
	opts      Options
	generator Generator
	history   HistoryStore
	prefs     PreferenceStore
	cache     Cache
	persister Submitter
	selector  *platform.Selector
	links     *platform.Synthesizer
	enrichers map[model.Category]Enricher
	rng       RNG
}

// NewOrchestrator 創建推薦管線
func NewOrchestrator(opts Options, deps Deps) *Orchestrator {
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = model.LocaleZH
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.GeneratorTimeout <= 0 {
		opts.GeneratorTimeout = defaultGeneratorTimeout
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.DedupMode == "" {
		opts.DedupMode = model.DedupStrict
	}
	if opts.MaxCount <= 0 || opts.MaxCount > MaxCount {
		opts.MaxCount = MaxCount
	}

	catalog := deps.Catalog
	if catalog == nil {
		catalog = platform.NewCatalog()
	}
	rng := deps.Rand
	if rng == nil {
		rng = defaultRand
	}
	persister := deps.Persister
	if persister == nil {
		persister = detached{}
	}
	enrichers := deps.Enrichers
	if enrichers == nil {
		enrichers = DefaultEnrichers()
	}

	return &Orchestrator{
		opts:      opts,
		generator: deps.Generator,
		history:   deps.History,
		prefs:     deps.Preferences,
		cache:     deps.Cache,
		persister: persister,
		selector:  platform.NewSelector(catalog),
		links:     platform.NewSynthesizer(catalog),
		enrichers: enrichers,
		rng:       rng,
	}
}

// ClampCount 將請求數量限制在 [1, max]
func (o *Orchestrator) ClampCount(n int) int {
	return common.ClampInt(n, MinCount, o.opts.MaxCount)
}

// Recommend 執行一次推薦。只有類別不合法時回傳錯誤，其餘路徑一律產生回應。
func (o *Orchestrator) Recommend(ctx context.Context, req model.Request) (*model.Response, error) {
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidCategory, req.Category)
	}

	cat := req.Category
	count := o.ClampCount(req.Count)
	locale := model.ParseLocale(string(req.Locale), o.opts.DefaultLocale)
	anonymous := req.Anonymous()

	var pref *model.UserPreference
	if !anonymous && o.prefs != nil {
		p, err := o.prefs.Read(ctx, req.UserID, cat)
		if err != nil {
			common.LogWarn("讀取使用者偏好失敗",
				zap.String("user_id", req.UserID),
				zap.String("category", cat.String()),
				zap.Error(err),
			)
		}
		pref = p
	}
	fp := Fingerprint(pref)
	var prefTags []string
	if pref != nil {
		prefTags = pref.Tags
	}

	var history []model.HistoryEntry
	if !anonymous && o.history != nil {
		h, err := o.history.Read(ctx, req.UserID, cat, o.opts.HistoryLimit)
		if err != nil {
			common.LogWarn("讀取推薦歷史失敗",
				zap.String("user_id", req.UserID),
				zap.String("category", cat.String()),
				zap.Error(err),
			)
		}
		history = h
	}

	// CacheCheck
	if items, ok := o.checkCache(ctx, req, cat, fp, anonymous); ok {
		items = Select(items, SelectOptions{
			Count:         count,
			History:       history,
			ExcludeTitles: req.ExcludeTitles,
			Mode:          model.DedupStrict,
			Rand:          o.rng,
		})
		if len(items) > 0 {
			return o.respond(cat, items, model.SourceCache, ""), nil
		}
		metrics.CacheLookups.WithLabelValues("exhausted").Inc()
		common.LogDebug("快取批次已全數看過，改為重新生成",
			zap.String("category", cat.String()),
			zap.String("user_id", req.UserID),
		)
	}

	// Generate
	source := model.SourceAI
	advisory := ""
	candidates, err := o.generate(ctx, GenerateInput{
		Category:       cat,
		Locale:         locale,
		History:        history,
		PreferenceTags: prefTags,
		ExcludeTitles:  req.ExcludeTitles,
		Count:          minInt(count*oversample, maxGenerateN),
	})
	if err != nil {
		common.LogWarn("生成器不可用，改用備援推薦",
			zap.String("category", cat.String()),
			zap.String("locale", string(locale)),
			zap.Error(err),
		)
		candidates = FallbackCandidates(cat, locale)
		source = model.SourceFallback
		advisory = advisories[locale]
	}

	// Shape
	sc := shapeContext{
		category:      cat,
		locale:        locale,
		count:         count,
		history:       history,
		excludeTitles: req.ExcludeTitles,
		prefTags:      prefTags,
	}
	items := o.shape(candidates, sc)
	if len(items) == 0 && source == model.SourceAI {
		common.LogWarn("AI 候選經去重後為空，改用備援推薦",
			zap.String("category", cat.String()),
			zap.Int("candidates", len(candidates)),
		)
		metrics.GeneratorFailures.WithLabelValues("filtered").Inc()
		items = o.shape(FallbackCandidates(cat, locale), sc)
		source = model.SourceFallback
		advisory = advisories[locale]
	}

	// Persist
	o.persist(req, cat, fp, items, source)

	return o.respond(cat, items, source, advisory), nil
}

func (o *Orchestrator) checkCache(ctx context.Context, req model.Request, cat model.Category, fp string, anonymous bool) ([]model.Item, bool) {
	if anonymous || req.SkipCache || o.cache == nil {
		metrics.CacheLookups.WithLabelValues("skipped").Inc()
		return nil, false
	}

	items, ok, err := o.cache.Get(ctx, cat, fp)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		common.LogWarn("讀取推薦快取失敗", zap.String("category", cat.String()), zap.Error(err))
		return nil, false
	}
	if !ok || len(items) == 0 {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		common.LogCacheMiss(cat.String(), fp)
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	common.LogCacheHit(cat.String(), fp)

	out := model.CloneItems(items)
	o.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, true
}

// generate 呼叫生成器；逾時、panic、錯誤或空結果一律視為失敗，不在同一請求內重試
func (o *Orchestrator) generate(ctx context.Context, in GenerateInput) ([]model.Candidate, error) {
	if o.generator == nil {
		metrics.GeneratorFailures.WithLabelValues("unavailable").Inc()
		return nil, ErrGeneratorUnavailable
	}

	gctx, cancel := context.WithTimeout(ctx, o.opts.GeneratorTimeout)
	defer cancel()

	type result struct {
		candidates []model.Candidate
		err        error
	}
	ch := make(chan result, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("%w: %v", errGeneratorPanic, r)}
			}
		}()
		c, err := o.generator.Generate(gctx, in)
		ch <- result{candidates: c, err: err}
	}()

	select {
	case r := <-ch:
		metrics.GeneratorDuration.WithLabelValues(in.Category.String()).Observe(time.Since(start).Seconds())
		if r.err != nil {
			metrics.GeneratorFailures.WithLabelValues(failureReason(r.err)).Inc()
			return nil, r.err
		}
		if len(r.candidates) == 0 {
			metrics.GeneratorFailures.WithLabelValues("empty").Inc()
			return nil, ErrEmptyGeneration
		}
		return r.candidates, nil
	case <-gctx.Done():
		metrics.GeneratorFailures.WithLabelValues("timeout").Inc()
		return nil, fmt.Errorf("%w after %s: %v", ErrGeneratorTimeout, o.opts.GeneratorTimeout, gctx.Err())
	}
}

var errGeneratorPanic = errors.New("generator panic")

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrGeneratorUnavailable):
		return "unavailable"
	case errors.Is(err, errGeneratorPanic):
		return "panic"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrGeneratorTimeout):
		return "timeout"
	default:
		return "error"
	}
}

type shapeContext struct {
	category      model.Category
	locale        model.Locale
	count         int
	history       []model.HistoryEntry
	excludeTitles []string
	prefTags      []string
}

// shape 依序執行：類別後處理 → 排序 → 多樣性 → 去重補滿 → 平台與連結
func (o *Orchestrator) shape(candidates []model.Candidate, sc shapeContext) []model.Item {
	hook := o.enrichers[sc.category]
	pool := make([]model.Item, 0, len(candidates))
	for _, c := range candidates {
		item, ok := model.ItemFromCandidate(sc.category, c)
		if !ok {
			continue
		}
		pool = append(pool, applyEnricher(hook, item, sc.locale))
	}
	pool = Rank(pool, sc.prefTags, o.rng)

	opts := SelectOptions{
		Count:          sc.count,
		History:        sc.history,
		ExcludeTitles:  sc.excludeTitles,
		Mode:           o.opts.DedupMode,
		PreferenceTags: sc.prefTags,
		Rand:           o.rng,
	}

	items := EnforceDiversity(pool, RequiredSubTypes(sc.category, o.opts.FitnessVenues), opts)

	fill := opts
	fill.Count = sc.count - len(items)
	fill.Siblings = items
	items = append(items, Select(pool, fill)...)

	for i := range items {
		o.attachLink(&items[i], sc.locale, i)
	}
	return items
}

func (o *Orchestrator) attachLink(item *model.Item, locale model.Locale, index int) {
	suggested := item.MetaString(model.MetaOriginalPlatform)
	if suggested == "" {
		suggested = item.Platform
	}
	name := o.selector.Choose(item.Category, item.SubType, locale, suggested, index)
	link := o.links.Synthesize(*item, name, locale)

	if item.Metadata == nil {
		item.Metadata = map[string]interface{}{}
	}
	item.Platform = link.DisplayName
	item.Link = link.URL
	item.LinkType = link.LinkType
	item.Metadata[model.MetaSearchQuery] = item.Query()
	item.Metadata[model.MetaOriginalPlatform] = suggested
	item.Metadata[model.MetaIsSearchLink] = link.IsSearch
}

// persist 提交背景寫入；不等待完成，失敗只記錄
func (o *Orchestrator) persist(req model.Request, cat model.Category, fp string, items []model.Item, source model.Source) {
	if req.Anonymous() || len(items) == 0 {
		return
	}

	if o.history != nil {
		snapshot := model.CloneItems(items)
		userID := req.UserID
		o.submit(queue.Task{Kind: taskHistory, Run: func(ctx context.Context) error {
			_, err := o.history.Write(ctx, userID, snapshot)
			return err
		}})
	}

	if source == model.SourceAI && o.cache != nil {
		snapshot := model.CloneItems(items)
		ttl := o.opts.CacheTTL
		o.submit(queue.Task{Kind: taskCacheFill, Run: func(ctx context.Context) error {
			return o.cache.Set(ctx, cat, fp, snapshot, ttl)
		}})
	}
}

func (o *Orchestrator) submit(task queue.Task) {
	if err := o.persister.Submit(task); err != nil {
		common.LogWarn("提交持久化任務失敗", zap.String("kind", task.Kind), zap.Error(err))
	}
}

func (o *Orchestrator) respond(cat model.Category, items []model.Item, source model.Source, advisory string) *model.Response {
	if items == nil {
		items = []model.Item{}
	}
	metrics.RecommendationsTotal.WithLabelValues(cat.String(), string(source)).Inc()
	metrics.RecommendationItems.WithLabelValues(cat.String()).Observe(float64(len(items)))
	return &model.Response{
		Success:         true,
		Recommendations: items,
		Source:          source,
		Error:           advisory,
	}
}

// detached 沒有注入隊列時，每個任務開一個 goroutine 執行
type detached struct{}

func (detached) Submit(task queue.Task) error {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				common.LogError("持久化任務 panic", zap.String("kind", task.Kind), zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := task.Run(ctx); err != nil {
			metrics.PersistTasks.WithLabelValues(task.Kind, "failed").Inc()
			common.LogError("持久化任務失敗", zap.String("kind", task.Kind), zap.Error(err))
		}
	}()
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
