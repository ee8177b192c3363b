package ai

import (
	"fmt"
	"strings"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/core/platform"
	"lifestyle-recommender/internal/core/recommend"
)

// maxPromptTitles 提示詞中列出的歷史與排除標題上限
const maxPromptTitles = 30

// categoryBrief 各類別的生成指示
var categoryBrief = map[model.Locale]map[model.Category]string{
	model.LocaleZH: {
		model.CategoryEntertainment: "推荐影视、游戏、音乐与影评内容，type 必须是 video、game、music、review 之一",
		model.CategoryShopping:      "推荐值得购买的商品，说明适合的使用场景",
		model.CategoryFood:          "推荐菜品、做法或餐厅，searchQuery 以菜名或店名为主",
		model.CategoryTravel:        "推荐旅游目的地、景点或住宿，住宿请在 tags 中加上「住宿」",
		model.CategoryFitness:       "推荐健身相关内容，type 必须是 nearby_place、tutorial、equipment、theory_article 之一",
	},
	model.LocaleEN: {
		model.CategoryEntertainment: "Recommend films, shows, games, music and reviews. type must be one of video, game, music, review",
		model.CategoryShopping:      "Recommend products worth buying and explain when they are useful",
		model.CategoryFood:          "Recommend dishes, recipes or restaurants. Use the dish or restaurant name as searchQuery",
		model.CategoryTravel:        "Recommend destinations, attractions or places to stay. Tag lodging items with \"lodging\"",
		model.CategoryFitness:       "Recommend fitness content. type must be one of nearby_place, tutorial, equipment, theory_article",
	},
}

// promptText 多語系固定文案
type promptText struct {
	system    string
	task      string
	platforms string
	prefs     string
	history   string
	exclude   string
	format    string
}

var promptTexts = map[model.Locale]promptText{
	model.LocaleZH: {
		system:    "你是生活方式推荐助手，只输出 JSON 数组，不要输出任何其他文字。",
		task:      "请生成 %d 个「%s」类别的推荐。%s。",
		platforms: "platform 字段请从以下平台中选择：%s。",
		prefs:     "用户偏好标签：%s。",
		history:   "用户最近已看过，请不要重复：%s。",
		exclude:   "以下标题也不要出现：%s。",
		format:    `每个元素格式：{"title":"","description":"","reason":"","tags":[""],"type":"","searchQuery":"","platform":""}`,
	},
	model.LocaleEN: {
		system:    "You are a lifestyle recommendation assistant. Output a JSON array only, with no other text.",
		task:      "Produce %d recommendations for the %q category. %s.",
		platforms: "Choose the platform field from: %s.",
		prefs:     "User preference tags: %s.",
		history:   "The user has recently seen these, do not repeat them: %s.",
		exclude:   "Also avoid these titles: %s.",
		format:    `Each element: {"title":"","description":"","reason":"","tags":[""],"type":"","searchQuery":"","platform":""}`,
	},
}

// textFor 非中文一律使用英文文案
func textFor(locale model.Locale) (promptText, map[model.Category]string) {
	if locale == model.LocaleZH {
		return promptTexts[model.LocaleZH], categoryBrief[model.LocaleZH]
	}
	return promptTexts[model.LocaleEN], categoryBrief[model.LocaleEN]
}

// BuildPrompt 依類別與語系組合 system 與 user 提示詞
func BuildPrompt(catalog *platform.Catalog, in recommend.GenerateInput) (system, user string) {
	text, briefs := textFor(in.Locale)

	var b strings.Builder
	fmt.Fprintf(&b, text.task, in.Count, in.Category, briefs[in.Category])

	if names := platformNames(catalog, in.Category, in.Locale); len(names) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, text.platforms, strings.Join(names, ", "))
	}
	if len(in.PreferenceTags) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, text.prefs, strings.Join(in.PreferenceTags, ", "))
	}
	if titles := historyTitles(in.History); len(titles) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, text.history, strings.Join(titles, ", "))
	}
	if excludes := limitTitles(in.ExcludeTitles); len(excludes) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, text.exclude, strings.Join(excludes, ", "))
	}
	b.WriteString("\n")
	b.WriteString(text.format)

	return text.system, b.String()
}

// platformNames 類別下所有子類型允許的平台，保持首次出現順序
func platformNames(catalog *platform.Catalog, category model.Category, locale model.Locale) []string {
	if catalog == nil {
		return nil
	}
	subTypes := append([]model.SubType{model.SubTypeNone}, category.SubTypes()...)

	seen := make(map[string]struct{})
	var names []string
	for _, st := range subTypes {
		for _, name := range catalog.Allowed(category, st, locale) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

func historyTitles(history []model.HistoryEntry) []string {
	titles := make([]string, 0, len(history))
	for _, h := range history {
		if t := strings.TrimSpace(h.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return limitTitles(titles)
}

func limitTitles(titles []string) []string {
	if len(titles) > maxPromptTitles {
		return titles[:maxPromptTitles]
	}
	return titles
}
