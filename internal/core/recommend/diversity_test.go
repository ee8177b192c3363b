package recommend

import (
	"testing"

	"lifestyle-recommender/internal/core/model"
)

func typed(title string, st model.SubType) model.Item {
	return model.Item{Title: title, SearchQuery: title, Category: model.CategoryEntertainment, SubType: st}
}

func TestRequiredSubTypes(t *testing.T) {
	tests := []struct {
		category model.Category
		venues   bool
		want     []model.SubType
	}{
		{model.CategoryEntertainment, true, []model.SubType{model.SubTypeVideo, model.SubTypeGame, model.SubTypeMusic, model.SubTypeReview}},
		{model.CategoryFitness, true, []model.SubType{model.SubTypeNearbyPlace, model.SubTypeTutorial, model.SubTypeEquipment}},
		{model.CategoryFitness, false, []model.SubType{model.SubTypeTutorial, model.SubTypeEquipment, model.SubTypeTheoryArticle}},
		{model.CategoryShopping, true, nil},
		{model.CategoryFood, false, nil},
		{model.CategoryTravel, true, nil},
	}
	for _, tt := range tests {
		got := RequiredSubTypes(tt.category, tt.venues)
		if len(got) != len(tt.want) {
			t.Errorf("RequiredSubTypes(%s, %v) = %v, want %v", tt.category, tt.venues, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("RequiredSubTypes(%s, %v)[%d] = %q, want %q", tt.category, tt.venues, i, got[i], tt.want[i])
			}
		}
	}
}

func TestEnforceDiversity_OnePerSubTypeInOrder(t *testing.T) {
	// 分數排序下影片會擠掉其他子類型，多樣性必須先於補滿
	pool := []model.Item{
		typed("V1", model.SubTypeVideo), typed("V2", model.SubTypeVideo), typed("V3", model.SubTypeVideo),
		typed("G1", model.SubTypeGame),
		typed("M1", model.SubTypeMusic),
		typed("R1", model.SubTypeReview),
	}
	required := RequiredSubTypes(model.CategoryEntertainment, false)

	got := EnforceDiversity(pool, required, SelectOptions{Count: 5, Rand: NewRand(1)})
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4: %v", len(got), titles(got))
	}
	for i, st := range required {
		if got[i].SubType != st {
			t.Errorf("got[%d].SubType = %q, want %q", i, got[i].SubType, st)
		}
	}
}

func TestEnforceDiversity_SkipsMissingAndExcluded(t *testing.T) {
	pool := []model.Item{
		typed("V1", model.SubTypeVideo),
		typed("G1", model.SubTypeGame),
		typed("R1", model.SubTypeReview),
	}
	history := []model.HistoryEntry{{Title: "G1"}}

	got := EnforceDiversity(pool, RequiredSubTypes(model.CategoryEntertainment, false), SelectOptions{
		Count:   4,
		History: history,
		Mode:    model.DedupLoose, // 多樣性挑選一律 strict
		Rand:    NewRand(1),
	})

	want := []string{"V1", "R1"}
	if len(got) != len(want) {
		t.Fatalf("EnforceDiversity() = %v, want %v", titles(got), want)
	}
	for i := range want {
		if got[i].Title != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Title, want[i])
		}
	}
}

func TestEnforceDiversity_NoPickTwice(t *testing.T) {
	// 同一標題出現在兩個子類型時只能被挑一次
	pool := []model.Item{
		typed("Same", model.SubTypeVideo),
		typed("Same", model.SubTypeReview),
	}
	got := EnforceDiversity(pool, []model.SubType{model.SubTypeVideo, model.SubTypeReview}, SelectOptions{Count: 4})
	if len(got) != 1 {
		t.Errorf("EnforceDiversity() = %v, want a single pick", titles(got))
	}
}

func TestEnforceDiversity_RespectsCount(t *testing.T) {
	pool := []model.Item{
		typed("V1", model.SubTypeVideo), typed("G1", model.SubTypeGame),
		typed("M1", model.SubTypeMusic), typed("R1", model.SubTypeReview),
	}
	got := EnforceDiversity(pool, RequiredSubTypes(model.CategoryEntertainment, false), SelectOptions{Count: 2})
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestEnforceDiversity_NoRequiredIsNoop(t *testing.T) {
	pool := []model.Item{typed("A", model.SubTypeNone)}
	if got := EnforceDiversity(pool, nil, SelectOptions{Count: 3}); len(got) != 0 {
		t.Errorf("EnforceDiversity() = %v, want empty", titles(got))
	}
}
