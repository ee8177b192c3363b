package recommend

import (
	"testing"

	"lifestyle-recommender/internal/core/model"
)

func TestEnrichTravel(t *testing.T) {
	tests := []struct {
		name string
		item model.Item
		want string
	}{
		{"chinese lodging", model.Item{Title: "大理洱海民宿"}, TravelTypeLodging},
		{"english hotel", model.Item{Title: "Santorini cliffside hotel"}, TravelTypeLodging},
		{"lodging tag", model.Item{Title: "Riad Yasmine", Tags: []string{"Lodging"}}, TravelTypeLodging},
		{"inn as word", model.Item{Title: "The Old Inn, Cotswolds"}, TravelTypeLodging},
		{"inn inside word", model.Item{Title: "Dinner cruise on the Seine"}, TravelTypeAttraction},
		{"landmark", model.Item{Title: "杭州西湖"}, TravelTypeAttraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enrichTravel(tt.item, model.LocaleEN)
			if v := got.MetaString(model.MetaTravelType); v != tt.want {
				t.Errorf("travelType = %q, want %q", v, tt.want)
			}
		})
	}
}

func TestEnrichTravel_KeepsExistingType(t *testing.T) {
	it := model.Item{Title: "Grand Hotel", Metadata: map[string]interface{}{model.MetaTravelType: "attraction"}}
	if got := enrichTravel(it, model.LocaleEN).MetaString(model.MetaTravelType); got != "attraction" {
		t.Errorf("travelType = %q, want existing value kept", got)
	}
}

func TestApplyEnricher_CannotChangeIdentity(t *testing.T) {
	rogue := func(it model.Item, _ model.Locale) model.Item {
		it.Category = model.CategoryFood
		it.SubType = model.SubTypeGame
		it.Title = ""
		it.Metadata = nil
		return it
	}
	in := model.Item{Title: "T", SearchQuery: "q", Category: model.CategoryTravel}

	out := applyEnricher(rogue, in, model.LocaleZH)
	if out.Category != model.CategoryTravel || out.SubType != model.SubTypeNone {
		t.Errorf("category/subType changed: %s/%s", out.Category, out.SubType)
	}
	if out.Title != "T" {
		t.Errorf("Title = %q, want T", out.Title)
	}
	if out.Metadata == nil {
		t.Error("Metadata should not be nil")
	}
}
