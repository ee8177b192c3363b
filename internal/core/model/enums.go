package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCategory 類別不在封閉集合內
var ErrInvalidCategory = errors.New("invalid category")

// Category 推薦類別（封閉集合）
type Category string

const (
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryFood          Category = "food"
	CategoryTravel        Category = "travel"
	CategoryFitness       Category = "fitness"
)

// Categories 所有合法類別，順序固定
var Categories = []Category{
	CategoryEntertainment,
	CategoryShopping,
	CategoryFood,
	CategoryTravel,
	CategoryFitness,
}

// ParseCategory 解析類別字串，大小寫與前後空白不敏感
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Valid 是否為合法類別
func (c Category) Valid() bool {
	switch c {
	case CategoryEntertainment, CategoryShopping, CategoryFood, CategoryTravel, CategoryFitness:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// SubType 類別專屬的子類型；空字串代表無
type SubType string

const (
	SubTypeNone SubType = ""

	// entertainment
	SubTypeVideo  SubType = "video"
	SubTypeGame   SubType = "game"
	SubTypeMusic  SubType = "music"
	SubTypeReview SubType = "review"

	// fitness
	SubTypeNearbyPlace   SubType = "nearby_place"
	SubTypeTutorial      SubType = "tutorial"
	SubTypeEquipment     SubType = "equipment"
	SubTypeTheoryArticle SubType = "theory_article"
)

var subTypesByCategory = map[Category][]SubType{
	CategoryEntertainment: {SubTypeVideo, SubTypeGame, SubTypeMusic, SubTypeReview},
	CategoryFitness:       {SubTypeNearbyPlace, SubTypeTutorial, SubTypeEquipment, SubTypeTheoryArticle},
}

// SubTypes 回傳類別可用的子類型；shopping/food/travel 為空
func (c Category) SubTypes() []SubType {
	return subTypesByCategory[c]
}

// ParseSubType 將生成器回傳的自由文字轉為子類型。
// 無法辨識或不屬於該類別時回傳 SubTypeNone。
func ParseSubType(c Category, s string) SubType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	if alias, ok := subTypeAliases[s]; ok {
		s = string(alias)
	}
	for _, st := range c.SubTypes() {
		if string(st) == s {
			return st
		}
	}
	return SubTypeNone
}

var subTypeAliases = map[string]SubType{
	"movie":        SubTypeVideo,
	"tv":           SubTypeVideo,
	"show":         SubTypeVideo,
	"song":         SubTypeMusic,
	"album":        SubTypeMusic,
	"podcast":      SubTypeMusic,
	"rating":       SubTypeReview,
	"critique":     SubTypeReview,
	"nearby":       SubTypeNearbyPlace,
	"place":        SubTypeNearbyPlace,
	"gym":          SubTypeNearbyPlace,
	"venue":        SubTypeNearbyPlace,
	"course":       SubTypeTutorial,
	"workout":      SubTypeTutorial,
	"gear":         SubTypeEquipment,
	"article":      SubTypeTheoryArticle,
	"theory":       SubTypeTheoryArticle,
	"knowledge":    SubTypeTheoryArticle,
	"video_game":   SubTypeGame,
	"mobile_game":  SubTypeGame,
	"film_review":  SubTypeReview,
	"movie_review": SubTypeReview,
}

// LinkType 外連語意類型（封閉集合）
type LinkType string

const (
	LinkArticle    LinkType = "article"
	LinkMusic      LinkType = "music"
	LinkRecipe     LinkType = "recipe"
	LinkRestaurant LinkType = "restaurant"
	LinkProduct    LinkType = "product"
	LinkVideo      LinkType = "video"
	LinkSearch     LinkType = "search"
	LinkBook       LinkType = "book"
	LinkLocation   LinkType = "location"
	LinkApp        LinkType = "app"
	LinkMovie      LinkType = "movie"
	LinkGame       LinkType = "game"
	LinkHotel      LinkType = "hotel"
	LinkCourse     LinkType = "course"
)

// Valid 是否為合法連結類型
func (l LinkType) Valid() bool {
	switch l {
	case LinkArticle, LinkMusic, LinkRecipe, LinkRestaurant, LinkProduct, LinkVideo, LinkSearch,
		LinkBook, LinkLocation, LinkApp, LinkMovie, LinkGame, LinkHotel, LinkCourse:
		return true
	}
	return false
}

// Locale 請求語系
type Locale string

const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"
)

// ParseLocale 解析語系；空字串回傳 fallback，其餘非 zh 一律視為 en
func ParseLocale(s string, fallback Locale) Locale {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return fallback
	case strings.HasPrefix(s, "zh"):
		return LocaleZH
	default:
		return LocaleEN
	}
}

// Region 平台目錄的地區分桶
type Region string

const (
	RegionCN   Region = "cn"
	RegionINTL Region = "intl"
)

// Region zh 走 CN 分桶，其餘走 INTL
func (l Locale) Region() Region {
	if l == LocaleZH {
		return RegionCN
	}
	return RegionINTL
}

// Source 批次來源標記
type Source string

const (
	SourceCache    Source = "cache"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// DedupMode 去重模式
type DedupMode string

const (
	DedupStrict DedupMode = "strict"
	DedupLoose  DedupMode = "loose"
)

// ParseDedupMode 未知值回傳 strict
func ParseDedupMode(s string) DedupMode {
	if DedupMode(strings.ToLower(strings.TrimSpace(s))) == DedupLoose {
		return DedupLoose
	}
	return DedupStrict
}
