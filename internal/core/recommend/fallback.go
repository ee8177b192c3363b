package recommend

import "lifestyle-recommender/internal/core/model"

type poolKey struct {
	locale   model.Locale
	category model.Category
}

// fallbackPools 生成器不可用時的靜態候選庫
var fallbackPools = map[poolKey][]model.Candidate{
	{model.LocaleZH, model.CategoryEntertainment}: {
		{Title: "流浪地球2", Description: "国产硬科幻电影，太空电梯与月球危机", Reason: "视效震撼，适合周末观看", Tags: []string{"科幻", "电影", "国产"}, Type: "video", Platform: "腾讯视频"},
		{Title: "漫长的季节", Description: "东北小城的悬疑往事", Reason: "豆瓣高分国产剧", Tags: []string{"悬疑", "剧集"}, Type: "video", Platform: "腾讯视频"},
		{Title: "原神", Description: "开放世界冒险角色扮演游戏", Reason: "画面精美，可免费游玩", Tags: []string{"游戏", "开放世界", "二次元"}, Type: "game", Platform: "TapTap"},
		{Title: "黑神话：悟空", Description: "以西游记为背景的动作游戏", Reason: "国产单机里程碑", Tags: []string{"游戏", "动作", "单机"}, Type: "game", Platform: "Steam"},
		{Title: "周杰伦 最伟大的作品", Description: "周杰伦第十五张专辑", Reason: "华语流行经典嗓音", Tags: []string{"音乐", "华语", "流行"}, Type: "music", Platform: "QQ音乐"},
		{Title: "陈奕迅 孤勇者", Description: "热门华语单曲", Reason: "旋律抓耳，传唱度高", Tags: []string{"音乐", "华语"}, Type: "music", Platform: "网易云音乐"},
		{Title: "奥本海默", SearchQuery: "奥本海默 影评", Description: "诺兰执导的传记电影", Reason: "看完影评再看更有收获", Tags: []string{"电影", "传记", "影评"}, Type: "review", Platform: "豆瓣"},
		{Title: "三体 电视剧", SearchQuery: "三体 剧评", Description: "刘慈欣科幻小说改编剧集", Reason: "原著党与剧粉的热门讨论", Tags: []string{"科幻", "剧集", "影评"}, Type: "review", Platform: "豆瓣"},
		{Title: "中国奇谭", Description: "上美影出品的动画短片集", Reason: "国风动画新高度", Tags: []string{"动画", "国风"}, Type: "video", Platform: "哔哩哔哩"},
	},
	{model.LocaleEN, model.CategoryEntertainment}: {
		{Title: "Dune: Part Two", Description: "Denis Villeneuve's sci-fi epic continues on Arrakis", Reason: "Stunning visuals and sound", Tags: []string{"sci-fi", "movie"}, Type: "video", Platform: "YouTube"},
		{Title: "The Bear", Description: "A chef returns home to run his family's sandwich shop", Reason: "Acclaimed drama with great pacing", Tags: []string{"drama", "series"}, Type: "video", Platform: "Netflix"},
		{Title: "Baldur's Gate 3", Description: "Story-rich party-based RPG", Reason: "Game of the year with deep choices", Tags: []string{"game", "rpg"}, Type: "game", Platform: "Steam"},
		{Title: "Hades", Description: "Roguelike dungeon crawler from Supergiant", Reason: "Tight combat in short sessions", Tags: []string{"game", "roguelike", "indie"}, Type: "game", Platform: "Steam"},
		{Title: "Taylor Swift - The Tortured Poets Department", Description: "Latest studio album", Reason: "Chart-topping songwriting", Tags: []string{"music", "pop"}, Type: "music", Platform: "Spotify"},
		{Title: "Lo-fi beats to relax", Description: "Chill instrumental playlist", Reason: "Perfect background for focus", Tags: []string{"music", "lofi", "chill"}, Type: "music", Platform: "YouTube Music"},
		{Title: "Oppenheimer", SearchQuery: "Oppenheimer review", Description: "Christopher Nolan's biographical thriller", Reason: "Read the critics before you watch", Tags: []string{"movie", "review", "drama"}, Type: "review", Platform: "Rotten Tomatoes"},
		{Title: "Past Lives", Description: "Two childhood friends reunite decades later", Reason: "Critically loved quiet romance", Tags: []string{"movie", "romance", "review"}, Type: "review", Platform: "IMDb"},
		{Title: "Spider-Man: Across the Spider-Verse", Description: "Animated multiverse adventure", Reason: "Groundbreaking animation", Tags: []string{"animation", "movie"}, Type: "video", Platform: "Netflix"},
	},

	{model.LocaleZH, model.CategoryShopping}: {
		{Title: "小米手环8", Description: "支持心率血氧监测的智能手环", Reason: "续航长、性价比高", Tags: []string{"数码", "穿戴"}, Platform: "京东"},
		{Title: "戴森吹风机 HD15", Description: "高速数码马达吹风机", Reason: "快干且护发", Tags: []string{"家电", "个护"}, Platform: "京东"},
		{Title: "无印良品 懒人沙发", Description: "可随意变形的豆袋沙发", Reason: "提升居家舒适度", Tags: []string{"家居"}, Platform: "淘宝"},
		{Title: "得力 桌面收纳盒", Description: "多格分区收纳", Reason: "让书桌更整洁", Tags: []string{"家居", "办公"}, Platform: "拼多多"},
		{Title: "罗技 MX Master 3S", Description: "静音无线鼠标", Reason: "办公效率神器", Tags: []string{"数码", "办公"}, Platform: "京东"},
		{Title: "三顿半 精品速溶咖啡", Description: "冷萃冻干咖啡粉", Reason: "随时来一杯好咖啡", Tags: []string{"食品", "咖啡"}, Platform: "淘宝"},
		{Title: "Kindle 电子书阅读器", Description: "墨水屏护眼阅读", Reason: "随身图书馆", Tags: []string{"数码", "阅读"}, Platform: "拼多多"},
	},
	{model.LocaleEN, model.CategoryShopping}: {
		{Title: "Kindle Paperwhite", Description: "Waterproof e-reader with warm light", Reason: "Carry a library anywhere", Tags: []string{"electronics", "reading"}, Platform: "Amazon"},
		{Title: "Anker Power Bank 20000mAh", Description: "Fast-charging portable battery", Reason: "Never run out of charge", Tags: []string{"electronics", "travel"}, Platform: "Amazon"},
		{Title: "Stanley Quencher Tumbler", Description: "Insulated 40oz tumbler", Reason: "Keeps drinks cold all day", Tags: []string{"kitchen", "lifestyle"}, Platform: "Amazon"},
		{Title: "Vintage film camera", Description: "Classic 35mm point-and-shoot", Reason: "Fun analog photography", Tags: []string{"photography", "vintage"}, Platform: "eBay"},
		{Title: "Logitech MX Master 3S", Description: "Quiet wireless productivity mouse", Reason: "Comfortable for long workdays", Tags: []string{"electronics", "office"}, Platform: "Amazon"},
		{Title: "Lego Botanical Collection", Description: "Buildable flower bouquet", Reason: "Relaxing build and decor", Tags: []string{"hobby", "home"}, Platform: "eBay"},
		{Title: "AeroPress Coffee Maker", Description: "Compact manual coffee press", Reason: "Great coffee in minutes", Tags: []string{"kitchen", "coffee"}, Platform: "Amazon"},
	},

	{model.LocaleZH, model.CategoryFood}: {
		{Title: "重庆火锅", Description: "麻辣牛油锅底配毛肚鸭肠", Reason: "适合朋友聚餐", Tags: []string{"火锅", "川渝"}, Platform: "大众点评"},
		{Title: "广式早茶", Description: "虾饺烧卖肠粉一应俱全", Reason: "周末慢享早餐", Tags: []string{"粤菜", "早茶"}, Platform: "美团"},
		{Title: "番茄炒蛋", SearchQuery: "番茄炒蛋 做法", Description: "十分钟家常快手菜", Reason: "简单下饭", Tags: []string{"家常菜", "快手"}, Platform: "下厨房"},
		{Title: "兰州牛肉面", Description: "一清二白三红四绿", Reason: "经济实惠的一餐", Tags: []string{"面食", "西北"}, Platform: "大众点评"},
		{Title: "日式拉面", Description: "豚骨浓汤配叉烧", Reason: "暖胃又满足", Tags: []string{"日料", "面食"}, Platform: "美团"},
		{Title: "可乐鸡翅", SearchQuery: "可乐鸡翅 做法", Description: "甜咸适口的家常菜", Reason: "新手也能做好", Tags: []string{"家常菜"}, Platform: "下厨房"},
		{Title: "潮汕牛肉火锅", Description: "现切鲜牛肉涮煮", Reason: "讲究食材新鲜", Tags: []string{"火锅", "潮汕"}, Platform: "大众点评"},
	},
	{model.LocaleEN, model.CategoryFood}: {
		{Title: "Neapolitan pizza", Description: "Wood-fired pizza with San Marzano tomatoes", Reason: "Classic comfort food", Tags: []string{"italian", "pizza"}, Platform: "Yelp"},
		{Title: "Ramen", Description: "Rich tonkotsu broth with chashu", Reason: "Warm and filling", Tags: []string{"japanese", "noodles"}, Platform: "Yelp"},
		{Title: "Shakshuka", SearchQuery: "shakshuka recipe", Description: "Eggs poached in spiced tomato sauce", Reason: "Easy one-pan brunch", Tags: []string{"recipe", "brunch"}, Platform: "Allrecipes"},
		{Title: "Korean BBQ", Description: "Grill-your-own marinated meats", Reason: "Fun group dinner", Tags: []string{"korean", "bbq"}, Platform: "Google Maps"},
		{Title: "Tacos al pastor", Description: "Spit-roasted pork with pineapple", Reason: "Street food favorite", Tags: []string{"mexican", "street food"}, Platform: "Yelp"},
		{Title: "Banana bread", SearchQuery: "banana bread recipe", Description: "Moist loaf with ripe bananas", Reason: "Uses up leftover bananas", Tags: []string{"recipe", "baking"}, Platform: "Allrecipes"},
		{Title: "Pho", Description: "Vietnamese beef noodle soup", Reason: "Light yet satisfying", Tags: []string{"vietnamese", "noodles"}, Platform: "Google Maps"},
	},

	{model.LocaleZH, model.CategoryTravel}: {
		{Title: "杭州西湖", Description: "断桥残雪、苏堤春晓", Reason: "江南经典一日游", Tags: []string{"景点", "江南"}, Platform: "马蜂窝"},
		{Title: "成都宽窄巷子", Description: "老成都街巷与小吃", Reason: "感受慢生活", Tags: []string{"景点", "美食"}, Platform: "高德地图"},
		{Title: "大理洱海民宿", Description: "推窗见海的海景民宿", Reason: "适合放空几天", Tags: []string{"住宿", "云南"}, Platform: "携程"},
		{Title: "张家界国家森林公园", Description: "奇峰三千的喀斯特地貌", Reason: "阿凡达取景地", Tags: []string{"自然", "徒步"}, Platform: "携程"},
		{Title: "厦门鼓浪屿", Description: "万国建筑博览与海岛风情", Reason: "文艺小岛漫步", Tags: []string{"海岛", "景点"}, Platform: "马蜂窝"},
		{Title: "三亚亚龙湾度假酒店", Description: "私人海滩的度假酒店", Reason: "冬季避寒首选", Tags: []string{"住宿", "海岛"}, Platform: "携程"},
		{Title: "西安城墙骑行", Description: "在明城墙上骑行一圈", Reason: "独特的古城体验", Tags: []string{"历史", "骑行"}, Platform: "高德地图"},
	},
	{model.LocaleEN, model.CategoryTravel}: {
		{Title: "Kyoto Fushimi Inari Shrine", Description: "Thousands of vermilion torii gates", Reason: "Iconic sunrise hike", Tags: []string{"japan", "landmark"}, Platform: "TripAdvisor"},
		{Title: "Lisbon Alfama district", Description: "Historic hillside neighbourhood", Reason: "Fado music and views", Tags: []string{"portugal", "city"}, Platform: "TripAdvisor"},
		{Title: "Santorini cliffside hotel", Description: "Caldera-view boutique hotel", Reason: "Unforgettable sunsets", Tags: []string{"greece", "lodging"}, Platform: "Booking.com"},
		{Title: "Banff National Park", Description: "Turquoise lakes in the Canadian Rockies", Reason: "Hiking and canoeing", Tags: []string{"canada", "nature"}, Platform: "Google Maps"},
		{Title: "Reykjavik hostel", Description: "Budget stay near the harbour", Reason: "Base for Northern Lights tours", Tags: []string{"iceland", "budget"}, Platform: "Booking.com"},
		{Title: "Cinque Terre coastal trail", Description: "Five villages linked by cliff paths", Reason: "Colourful seaside walks", Tags: []string{"italy", "hiking"}, Platform: "TripAdvisor"},
		{Title: "Marrakech riad stay", SearchQuery: "Marrakech riad hotel", Description: "Traditional courtyard guesthouse", Reason: "Quiet escape from the souks", Tags: []string{"morocco", "lodging"}, Platform: "Booking.com"},
	},

	{model.LocaleZH, model.CategoryFitness}: {
		{Title: "附近的24小时健身房", SearchQuery: "24小时健身房", Description: "随时可去的综合健身房", Reason: "下班后也能练", Tags: []string{"健身房", "力量"}, Type: "nearby_place", Platform: "大众点评"},
		{Title: "室内攀岩馆", SearchQuery: "攀岩馆", Description: "抱石与顶绳攀岩", Reason: "锻炼全身协调性", Tags: []string{"攀岩", "运动场馆"}, Type: "nearby_place", Platform: "高德地图"},
		{Title: "帕梅拉 15分钟燃脂", Description: "高强度间歇有氧训练", Reason: "在家就能出汗", Tags: []string{"有氧", "燃脂"}, Type: "tutorial", Platform: "哔哩哔哩"},
		{Title: "Keep 瑜伽入门", Description: "零基础瑜伽课程", Reason: "缓解久坐僵硬", Tags: []string{"瑜伽", "拉伸"}, Type: "tutorial", Platform: "Keep"},
		{Title: "可调节哑铃", Description: "2-24kg 快速调节哑铃", Reason: "家庭力量训练必备", Tags: []string{"器材", "力量"}, Type: "equipment", Platform: "京东"},
		{Title: "瑜伽垫 TPE 加厚", Description: "防滑加厚瑜伽垫", Reason: "保护膝盖关节", Tags: []string{"器材", "瑜伽"}, Type: "equipment", Platform: "淘宝"},
		{Title: "增肌期饮食怎么安排", Description: "蛋白质与碳水的摄入原则", Reason: "练得对更要吃得对", Tags: []string{"营养", "增肌"}, Type: "theory_article", Platform: "知乎"},
		{Title: "跑步膝盖疼的原因", Description: "常见跑步损伤与预防", Reason: "科学跑步少受伤", Tags: []string{"跑步", "康复"}, Type: "theory_article", Platform: "知乎"},
	},
	{model.LocaleEN, model.CategoryFitness}: {
		{Title: "Local climbing gym", SearchQuery: "bouldering gym", Description: "Indoor bouldering and top-rope walls", Reason: "Full-body strength and fun", Tags: []string{"climbing", "gym"}, Type: "nearby_place", Platform: "Google Maps"},
		{Title: "Community yoga studio", SearchQuery: "yoga studio", Description: "Drop-in vinyasa classes", Reason: "Flexibility and calm", Tags: []string{"yoga", "studio"}, Type: "nearby_place", Platform: "Yelp"},
		{Title: "20-minute HIIT workout", Description: "No-equipment interval training", Reason: "Quick and effective", Tags: []string{"hiit", "cardio"}, Type: "tutorial", Platform: "YouTube"},
		{Title: "Beginner mobility routine", Description: "Daily stretches for desk workers", Reason: "Reduce stiffness", Tags: []string{"mobility", "stretching"}, Type: "tutorial", Platform: "YouTube"},
		{Title: "Adjustable dumbbells", Description: "Space-saving 5-52.5 lb set", Reason: "Home strength training", Tags: []string{"equipment", "strength"}, Type: "equipment", Platform: "Amazon"},
		{Title: "Resistance bands set", Description: "Five bands of varying tension", Reason: "Portable full-body training", Tags: []string{"equipment", "travel"}, Type: "equipment", Platform: "Amazon"},
		{Title: "How much protein do you need", Description: "Evidence-based protein intake guide", Reason: "Fuel your training properly", Tags: []string{"nutrition", "protein"}, Type: "theory_article", Platform: "Healthline"},
		{Title: "Zone 2 cardio explained", Description: "Why low-intensity cardio builds endurance", Reason: "Train smarter, not harder", Tags: []string{"cardio", "endurance"}, Type: "theory_article", Platform: "Healthline"},
	},
}

// FallbackCandidates 回傳 (語系, 類別) 的備援候選副本；未知語系使用 en
func FallbackCandidates(category model.Category, locale model.Locale) []model.Candidate {
	if locale != model.LocaleZH {
		locale = model.LocaleEN
	}
	src := fallbackPools[poolKey{locale, category}]
	out := make([]model.Candidate, len(src))
	for i, c := range src {
		c.Tags = append([]string(nil), c.Tags...)
		out[i] = c
	}
	return out
}
