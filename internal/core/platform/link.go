package platform

import (
	"strings"

	"lifestyle-recommender/internal/core/model"
)

// Link 合成後的外連結果
type Link struct {
	URL         string
	DisplayName string
	LinkType    model.LinkType
	IsSearch    bool
}

// anyCategory / anySubType 表格萬用鍵
const (
	anyCategory model.Category = "*"
	anySubType  model.SubType  = "*"
)

// augmentRule 查詢字串補強規則，表格中第一條命中的規則生效
type augmentRule struct {
	category model.Category
	subType  model.SubType
	platform string
	suffix   string
	when     func(model.Item) bool
}

func isLodging(it model.Item) bool {
	return it.MetaString(model.MetaTravelType) == TravelTypeLodging
}

// TravelTypeLodging 旅遊項目為住宿時 metadata.travelType 的值
const TravelTypeLodging = "lodging"

var augmentRules = []augmentRule{
	{category: model.CategoryEntertainment, subType: model.SubTypeReview, platform: "百度", suffix: "豆瓣评分"},
	{category: model.CategoryEntertainment, subType: model.SubTypeReview, platform: "哔哩哔哩", suffix: "影评"},
	{category: model.CategoryEntertainment, subType: model.SubTypeReview, platform: "Google", suffix: "IMDb rating"},
	{category: model.CategoryEntertainment, subType: model.SubTypeReview, platform: "YouTube", suffix: "review"},
	{category: model.CategoryEntertainment, subType: model.SubTypeMusic, platform: "哔哩哔哩", suffix: "MV"},
	{category: model.CategoryFitness, subType: model.SubTypeTutorial, platform: "哔哩哔哩", suffix: "教程"},
	{category: model.CategoryFitness, subType: model.SubTypeTutorial, platform: "YouTube", suffix: "workout tutorial"},
	{category: model.CategoryFitness, subType: model.SubTypeNearbyPlace, platform: "高德地图", suffix: "附近"},
	{category: model.CategoryFitness, subType: model.SubTypeNearbyPlace, platform: "Google Maps", suffix: "near me"},
	{category: model.CategoryFood, subType: anySubType, platform: "百度", suffix: "做法"},
	{category: model.CategoryTravel, subType: anySubType, platform: "携程", suffix: "酒店", when: isLodging},
	{category: model.CategoryTravel, subType: anySubType, platform: "高德地图", suffix: "酒店", when: isLodging},
	{category: model.CategoryTravel, subType: anySubType, platform: "百度", suffix: "酒店预订", when: isLodging},
	{category: model.CategoryTravel, subType: anySubType, platform: "Google Maps", suffix: "hotel", when: isLodging},
	{category: model.CategoryTravel, subType: anySubType, platform: "Google", suffix: "hotel booking", when: isLodging},
	{category: model.CategoryTravel, subType: anySubType, platform: "TripAdvisor", suffix: "hotel", when: isLodging},
}

type linkKey struct {
	category model.Category
	platform string
}

// linkTypes (類別, 平台) → 連結類型；類別專屬鍵優先於萬用鍵，皆未命中時為 search
var linkTypes = map[linkKey]model.LinkType{
	{anyCategory, "哔哩哔哩"}:      model.LinkVideo,
	{anyCategory, "腾讯视频"}:      model.LinkVideo,
	{anyCategory, "爱奇艺"}:       model.LinkVideo,
	{anyCategory, "优酷"}:        model.LinkVideo,
	{anyCategory, "YouTube"}:   model.LinkVideo,
	{anyCategory, "Netflix"}:   model.LinkMovie,
	{anyCategory, "豆瓣"}:        model.LinkMovie,
	{anyCategory, "IMDb"}:      model.LinkMovie,
	{anyCategory, "Rotten Tomatoes"}: model.LinkMovie,
	{anyCategory, "TapTap"}:    model.LinkGame,
	{anyCategory, "Steam"}:     model.LinkGame,
	{anyCategory, "网易云音乐"}:     model.LinkMusic,
	{anyCategory, "QQ音乐"}:      model.LinkMusic,
	{anyCategory, "Spotify"}:   model.LinkMusic,
	{anyCategory, "YouTube Music"}: model.LinkMusic,
	{anyCategory, "京东"}:        model.LinkProduct,
	{anyCategory, "淘宝"}:        model.LinkProduct,
	{anyCategory, "拼多多"}:       model.LinkProduct,
	{anyCategory, "Amazon"}:    model.LinkProduct,
	{anyCategory, "eBay"}:      model.LinkProduct,
	{anyCategory, "大众点评"}:      model.LinkRestaurant,
	{anyCategory, "美团"}:        model.LinkRestaurant,
	{anyCategory, "Yelp"}:      model.LinkRestaurant,
	{anyCategory, "下厨房"}:       model.LinkRecipe,
	{anyCategory, "Allrecipes"}: model.LinkRecipe,
	{anyCategory, "携程"}:        model.LinkHotel,
	{anyCategory, "Booking.com"}: model.LinkHotel,
	{anyCategory, "马蜂窝"}:       model.LinkArticle,
	{anyCategory, "TripAdvisor"}: model.LinkLocation,
	{anyCategory, "高德地图"}:      model.LinkLocation,
	{anyCategory, "Google Maps"}: model.LinkLocation,
	{anyCategory, "Keep"}:      model.LinkApp,
	{anyCategory, "知乎"}:        model.LinkArticle,
	{anyCategory, "Healthline"}: model.LinkArticle,
	{anyCategory, "百度"}:        model.LinkSearch,
	{anyCategory, "Google"}:    model.LinkSearch,

	{model.CategoryFood, "Google Maps"}:  model.LinkRestaurant,
	{model.CategoryFitness, "大众点评"}:     model.LinkLocation,
	{model.CategoryFitness, "Yelp"}:     model.LinkLocation,
	{model.CategoryFitness, "Keep"}:     model.LinkCourse,
	{model.CategoryFitness, "哔哩哔哩"}:     model.LinkCourse,
	{model.CategoryFitness, "YouTube"}:  model.LinkCourse,
	{model.CategoryTravel, "马蜂窝"}:      model.LinkArticle,
}

// Synthesizer 產生推薦項目的外連網址
type Synthesizer struct {
	catalog *Catalog
}

// NewSynthesizer 創建連結合成器
func NewSynthesizer(catalog *Catalog) *Synthesizer {
	return &Synthesizer{catalog: catalog}
}

// Synthesize 為項目合成外連。平台沒有模板時退回語系通用搜尋引擎，永不失敗。
func (s *Synthesizer) Synthesize(item model.Item, platformName string, locale model.Locale) Link {
	p, ok := s.catalog.Platform(platformName)
	if !ok {
		p = s.catalog.Generic(locale)
	}

	query := augmentQuery(item, p.Name)

	return Link{
		URL:         p.URL(query),
		DisplayName: p.Name,
		LinkType:    LinkTypeFor(item.Category, p.Name),
		IsSearch:    p.Search,
	}
}

// LinkTypeFor 查表取得連結類型
func LinkTypeFor(category model.Category, platformName string) model.LinkType {
	if lt, ok := linkTypes[linkKey{category, platformName}]; ok {
		return lt
	}
	if lt, ok := linkTypes[linkKey{anyCategory, platformName}]; ok {
		return lt
	}
	return model.LinkSearch
}

// augmentQuery 套用第一條命中的補強規則；查詢已含後綴時不重複附加
func augmentQuery(item model.Item, platformName string) string {
	query := item.Query()
	for _, r := range augmentRules {
		if r.platform != platformName {
			continue
		}
		if r.category != anyCategory && r.category != item.Category {
			continue
		}
		if r.subType != anySubType && r.subType != item.SubType {
			continue
		}
		if r.when != nil && !r.when(item) {
			continue
		}
		if strings.Contains(strings.ToLower(query), strings.ToLower(r.suffix)) {
			return query
		}
		return query + " " + r.suffix
	}
	return query
}
