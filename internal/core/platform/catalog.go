package platform

import (
	"net/url"
	"strings"

	"lifestyle-recommender/internal/core/model"
)

// Platform 目的地平台與其網址模板
type Platform struct {
	Name    string
	Aliases []string
	// build 以已編碼前的查詢字串產生最終網址
	build func(query string) string
	// Search 為 true 表示產生的是站內搜尋頁，而非內容直連
	Search bool
}

// URL 產生外連網址
func (p Platform) URL(query string) string {
	return p.build(query)
}

// Bucket 某 (地區, 類別, 子類型) 下可選的平台
type Bucket struct {
	Platforms []string
	// Rotate 為 true 時依結果位置輪替平台
	Rotate bool
}

type bucketKey struct {
	region   model.Region
	category model.Category
	subType  model.SubType
}

// Catalog 靜態平台目錄
type Catalog struct {
	platforms map[string]Platform
	buckets   map[bucketKey]Bucket
	generic   map[model.Region]string
}

func queryURL(prefix string) func(string) string {
	return func(q string) string { return prefix + url.QueryEscape(q) }
}

func pathURL(prefix, suffix string) func(string) string {
	return func(q string) string { return prefix + url.PathEscape(q) + suffix }
}

var platforms = []Platform{
	// CN
	{Name: "哔哩哔哩", Aliases: []string{"bilibili", "b站"}, build: queryURL("https://search.bilibili.com/all?keyword="), Search: true},
	{Name: "腾讯视频", Aliases: []string{"tencent video", "qq video"}, build: queryURL("https://v.qq.com/x/search/?q="), Search: true},
	{Name: "爱奇艺", Aliases: []string{"iqiyi"}, build: pathURL("https://so.iqiyi.com/so/q_", ""), Search: true},
	{Name: "优酷", Aliases: []string{"youku"}, build: pathURL("https://so.youku.com/search_video/q_", ""), Search: true},
	{Name: "TapTap", Aliases: []string{"taptap"}, build: pathURL("https://www.taptap.cn/search/", ""), Search: true},
	{Name: "网易云音乐", Aliases: []string{"netease music", "netease cloud music", "网易云"}, build: queryURL("https://music.163.com/#/search/m/?s="), Search: true},
	{Name: "QQ音乐", Aliases: []string{"qq music"}, build: queryURL("https://y.qq.com/n/ryqq/search?w="), Search: true},
	{Name: "豆瓣", Aliases: []string{"douban"}, build: queryURL("https://search.douban.com/movie/subject_search?search_text="), Search: true},
	{Name: "京东", Aliases: []string{"jd", "jd.com", "jingdong"}, build: queryURL("https://search.jd.com/Search?keyword="), Search: true},
	{Name: "淘宝", Aliases: []string{"taobao", "天猫"}, build: queryURL("https://s.taobao.com/search?q="), Search: true},
	{Name: "拼多多", Aliases: []string{"pinduoduo", "pdd"}, build: queryURL("https://mobile.yangkeduo.com/search_result.html?search_key="), Search: true},
	{Name: "大众点评", Aliases: []string{"dianping"}, build: pathURL("https://www.dianping.com/search/keyword/1/0_", ""), Search: true},
	{Name: "美团", Aliases: []string{"meituan"}, build: pathURL("https://www.meituan.com/s/", "/"), Search: true},
	{Name: "下厨房", Aliases: []string{"xiachufang"}, build: queryURL("https://www.xiachufang.com/search/?keyword="), Search: true},
	{Name: "携程", Aliases: []string{"ctrip", "trip.com"}, build: queryURL("https://you.ctrip.com/globalsearch/?keyword="), Search: true},
	{Name: "马蜂窝", Aliases: []string{"mafengwo"}, build: queryURL("https://www.mafengwo.cn/search/q.php?q="), Search: true},
	{Name: "高德地图", Aliases: []string{"amap", "gaode", "高德"}, build: queryURL("https://www.amap.com/search?query="), Search: false},
	{Name: "Keep", Aliases: []string{"keep app"}, build: queryURL("https://www.gotokeep.com/search?keyword="), Search: true},
	{Name: "知乎", Aliases: []string{"zhihu"}, build: queryURL("https://www.zhihu.com/search?type=content&q="), Search: true},
	{Name: "百度", Aliases: []string{"baidu"}, build: queryURL("https://www.baidu.com/s?wd="), Search: true},

	// INTL
	{Name: "YouTube", Aliases: []string{"youtube", "yt"}, build: queryURL("https://www.youtube.com/results?search_query="), Search: true},
	{Name: "Netflix", Aliases: []string{"netflix"}, build: queryURL("https://www.netflix.com/search?q="), Search: true},
	{Name: "Steam", Aliases: []string{"steam", "steam store"}, build: queryURL("https://store.steampowered.com/search/?term="), Search: true},
	{Name: "Spotify", Aliases: []string{"spotify"}, build: pathURL("https://open.spotify.com/search/", ""), Search: true},
	{Name: "YouTube Music", Aliases: []string{"youtube music", "yt music"}, build: queryURL("https://music.youtube.com/search?q="), Search: true},
	{Name: "IMDb", Aliases: []string{"imdb"}, build: queryURL("https://www.imdb.com/find/?q="), Search: true},
	{Name: "Rotten Tomatoes", Aliases: []string{"rottentomatoes", "rotten tomatoes"}, build: queryURL("https://www.rottentomatoes.com/search?search="), Search: true},
	{Name: "Amazon", Aliases: []string{"amazon", "amazon.com"}, build: queryURL("https://www.amazon.com/s?k="), Search: true},
	{Name: "eBay", Aliases: []string{"ebay"}, build: queryURL("https://www.ebay.com/sch/i.html?_nkw="), Search: true},
	{Name: "Yelp", Aliases: []string{"yelp"}, build: queryURL("https://www.yelp.com/search?find_desc="), Search: true},
	{Name: "Google Maps", Aliases: []string{"google maps", "gmaps"}, build: queryURL("https://www.google.com/maps/search/?api=1&query="), Search: false},
	{Name: "Allrecipes", Aliases: []string{"allrecipes", "all recipes"}, build: queryURL("https://www.allrecipes.com/search?q="), Search: true},
	{Name: "Booking.com", Aliases: []string{"booking", "booking.com"}, build: queryURL("https://www.booking.com/searchresults.html?ss="), Search: true},
	{Name: "TripAdvisor", Aliases: []string{"tripadvisor", "trip advisor"}, build: queryURL("https://www.tripadvisor.com/Search?q="), Search: true},
	{Name: "Healthline", Aliases: []string{"healthline"}, build: queryURL("https://www.healthline.com/search?q1="), Search: true},
	{Name: "Google", Aliases: []string{"google", "google search"}, build: queryURL("https://www.google.com/search?q="), Search: true},
}

var buckets = map[bucketKey]Bucket{
	// CN
	{model.RegionCN, model.CategoryEntertainment, model.SubTypeVideo}:          {Platforms: []string{"哔哩哔哩", "腾讯视频", "爱奇艺", "优酷"}},
	{model.RegionCN, model.CategoryEntertainment, model.SubTypeGame}:           {Platforms: []string{"TapTap", "Steam"}},
	{model.RegionCN, model.CategoryEntertainment, model.SubTypeMusic}:          {Platforms: []string{"网易云音乐", "QQ音乐"}},
	{model.RegionCN, model.CategoryEntertainment, model.SubTypeReview}:         {Platforms: []string{"豆瓣", "哔哩哔哩"}},
	{model.RegionCN, model.CategoryEntertainment, model.SubTypeNone}:           {Platforms: []string{"豆瓣", "哔哩哔哩"}},
	{model.RegionCN, model.CategoryShopping, model.SubTypeNone}:                {Platforms: []string{"京东", "淘宝", "拼多多"}, Rotate: true},
	{model.RegionCN, model.CategoryFood, model.SubTypeNone}:                    {Platforms: []string{"大众点评", "美团", "下厨房"}, Rotate: true},
	{model.RegionCN, model.CategoryTravel, model.SubTypeNone}:                  {Platforms: []string{"携程", "马蜂窝", "高德地图"}},
	{model.RegionCN, model.CategoryFitness, model.SubTypeNearbyPlace}:          {Platforms: []string{"大众点评", "高德地图"}},
	{model.RegionCN, model.CategoryFitness, model.SubTypeTutorial}:             {Platforms: []string{"哔哩哔哩", "Keep"}},
	{model.RegionCN, model.CategoryFitness, model.SubTypeEquipment}:            {Platforms: []string{"京东", "淘宝"}},
	{model.RegionCN, model.CategoryFitness, model.SubTypeTheoryArticle}:        {Platforms: []string{"知乎"}},
	{model.RegionCN, model.CategoryFitness, model.SubTypeNone}:                 {Platforms: []string{"Keep", "哔哩哔哩"}},

	// INTL
	{model.RegionINTL, model.CategoryEntertainment, model.SubTypeVideo}:   {Platforms: []string{"YouTube", "Netflix"}},
	{model.RegionINTL, model.CategoryEntertainment, model.SubTypeGame}:    {Platforms: []string{"Steam"}},
	{model.RegionINTL, model.CategoryEntertainment, model.SubTypeMusic}:   {Platforms: []string{"Spotify", "YouTube Music"}},
	{model.RegionINTL, model.CategoryEntertainment, model.SubTypeReview}:  {Platforms: []string{"IMDb", "Rotten Tomatoes", "YouTube"}},
	{model.RegionINTL, model.CategoryEntertainment, model.SubTypeNone}:    {Platforms: []string{"YouTube", "IMDb"}},
	{model.RegionINTL, model.CategoryShopping, model.SubTypeNone}:         {Platforms: []string{"Amazon", "eBay"}, Rotate: true},
	{model.RegionINTL, model.CategoryFood, model.SubTypeNone}:             {Platforms: []string{"Yelp", "Google Maps", "Allrecipes"}, Rotate: true},
	{model.RegionINTL, model.CategoryTravel, model.SubTypeNone}:           {Platforms: []string{"Booking.com", "TripAdvisor", "Google Maps"}},
	{model.RegionINTL, model.CategoryFitness, model.SubTypeNearbyPlace}:   {Platforms: []string{"Google Maps", "Yelp"}},
	{model.RegionINTL, model.CategoryFitness, model.SubTypeTutorial}:      {Platforms: []string{"YouTube"}},
	{model.RegionINTL, model.CategoryFitness, model.SubTypeEquipment}:     {Platforms: []string{"Amazon"}},
	{model.RegionINTL, model.CategoryFitness, model.SubTypeTheoryArticle}: {Platforms: []string{"Healthline"}},
	{model.RegionINTL, model.CategoryFitness, model.SubTypeNone}:          {Platforms: []string{"YouTube"}},
}

// NewCatalog 建立內建平台目錄
func NewCatalog() *Catalog {
	c := &Catalog{
		platforms: make(map[string]Platform, len(platforms)),
		buckets:   buckets,
		generic: map[model.Region]string{
			model.RegionCN:   "百度",
			model.RegionINTL: "Google",
		},
	}
	for _, p := range platforms {
		c.platforms[p.Name] = p
	}
	return c
}

// Platform 依名稱查詢平台
func (c *Catalog) Platform(name string) (Platform, bool) {
	p, ok := c.platforms[name]
	return p, ok
}

// Bucket 取得分桶；子類型沒有專屬分桶時退回類別層級分桶
func (c *Catalog) Bucket(region model.Region, category model.Category, subType model.SubType) (Bucket, bool) {
	if b, ok := c.buckets[bucketKey{region, category, subType}]; ok {
		return b, true
	}
	b, ok := c.buckets[bucketKey{region, category, model.SubTypeNone}]
	return b, ok
}

// Generic 該語系的通用搜尋引擎
func (c *Catalog) Generic(locale model.Locale) Platform {
	return c.platforms[c.generic[locale.Region()]]
}

// Allowed 回傳 (類別, 子類型, 語系) 可接受的所有平台名稱，含通用搜尋引擎
func (c *Catalog) Allowed(category model.Category, subType model.SubType, locale model.Locale) []string {
	var out []string
	if b, ok := c.Bucket(locale.Region(), category, subType); ok {
		out = append(out, b.Platforms...)
	}
	return append(out, c.Generic(locale).Name)
}

// lookupName 以名稱或別名（大小寫不敏感）找出平台正式名稱
func (c *Catalog) lookupName(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	for name, p := range c.platforms {
		if strings.ToLower(name) == s {
			return name, true
		}
		for _, a := range p.Aliases {
			if a == s {
				return name, true
			}
		}
	}
	return "", false
}
