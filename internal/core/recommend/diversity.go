package recommend

import "lifestyle-recommender/internal/core/model"

var (
	entertainmentRequired = []model.SubType{
		model.SubTypeVideo, model.SubTypeGame, model.SubTypeMusic, model.SubTypeReview,
	}
	fitnessWithVenues = []model.SubType{
		model.SubTypeNearbyPlace, model.SubTypeTutorial, model.SubTypeEquipment,
	}
	fitnessWithoutVenues = []model.SubType{
		model.SubTypeTutorial, model.SubTypeEquipment, model.SubTypeTheoryArticle,
	}
)

// RequiredSubTypes 類別必須覆蓋的子類型。
// fitnessVenues 為部署層級開關：關閉時以理論文章取代附近場館。
func RequiredSubTypes(category model.Category, fitnessVenues bool) []model.SubType {
	switch category {
	case model.CategoryEntertainment:
		return entertainmentRequired
	case model.CategoryFitness:
		if fitnessVenues {
			return fitnessWithVenues
		}
		return fitnessWithoutVenues
	default:
		return nil
	}
}

// EnforceDiversity 依 required 順序為每個子類型挑一個項目，最多 opts.Count 個。
// 每次挑選以 strict 模式對滾動排除清單（歷史、排除標題、已選項目）去重；
// 池中已沒有該子類型時直接略過。
func EnforceDiversity(pool []model.Item, required []model.SubType, opts SelectOptions) []model.Item {
	picked := make([]model.Item, 0, len(required))
	if opts.Count <= 0 {
		return picked
	}

	for _, st := range required {
		if len(picked) >= opts.Count {
			break
		}

		var matching []model.Item
		for _, it := range pool {
			if it.SubType == st {
				matching = append(matching, it)
			}
		}
		if len(matching) == 0 {
			continue
		}

		step := opts
		step.Count = 1
		step.Mode = model.DedupStrict
		step.Siblings = append(append([]model.Item(nil), opts.Siblings...), picked...)

		if got := Select(matching, step); len(got) == 1 {
			picked = append(picked, got[0])
		}
	}
	return picked
}
