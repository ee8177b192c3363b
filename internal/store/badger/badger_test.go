package badger

import (
	"context"
	"errors"
	"testing"

	"lifestyle-recommender/internal/core/model"
	"lifestyle-recommender/internal/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestHistory_WriteRead(t *testing.T) {
	ctx := context.Background()
	h := newTestDB(t).History()

	ids, err := h.Write(ctx, "u1", []model.Item{
		{Title: "A", Category: model.CategoryFood},
		{Title: "B", Category: model.CategoryFood, SearchQuery: "b query"},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Write() ids = %v", ids)
	}
	_, _ = h.Write(ctx, "u1", []model.Item{{Title: "T", Category: model.CategoryTravel}})
	_, _ = h.Write(ctx, "u1", []model.Item{{Title: "C", Category: model.CategoryFood}})

	got, err := h.Read(ctx, "u1", model.CategoryFood, 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := []string{"C", "B", "A"}
	if len(got) != len(want) {
		t.Fatalf("Read() = %+v, want %v", got, want)
	}
	for i := range want {
		if got[i].Title != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Title, want[i])
		}
	}
	if got[1].SearchQuery != "b query" || got[1].ID != ids[1] {
		t.Errorf("got[1] = %+v, want stored query and id", got[1])
	}

	limited, _ := h.Read(ctx, "u1", model.CategoryFood, 2)
	if len(limited) != 2 || limited[0].Title != "C" {
		t.Errorf("Read(limit 2) = %+v", limited)
	}
}

func TestHistory_UserIDsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	h := newTestDB(t).History()

	// "u1:food" 不可讀到 "u1" 的紀錄
	_, _ = h.Write(ctx, "u1", []model.Item{{Title: "mine", Category: model.CategoryFood}})
	_, _ = h.Write(ctx, "u1:food", []model.Item{{Title: "theirs", Category: model.CategoryFood}})

	got, _ := h.Read(ctx, "u1", model.CategoryFood, 10)
	if len(got) != 1 || got[0].Title != "mine" {
		t.Errorf("Read(u1) = %+v, want only own entry", got)
	}
}

func TestHistory_Validation(t *testing.T) {
	ctx := context.Background()
	h := newTestDB(t).History()

	if _, err := h.Write(ctx, "", []model.Item{{Title: "A"}}); !errors.Is(err, store.ErrEmptyUserID) {
		t.Errorf("Write(empty user) error = %v", err)
	}
	if _, err := h.Read(ctx, "u", model.CategoryFood, -1); !errors.Is(err, store.ErrInvalidLimit) {
		t.Errorf("Read(limit -1) error = %v", err)
	}
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	p := newTestDB(t).Preferences()

	got, err := p.Read(ctx, "u", model.CategoryFitness)
	if err != nil || got != nil {
		t.Fatalf("Read() = %+v, %v, want nil, nil", got, err)
	}

	pref := model.UserPreference{UserID: "u", Category: model.CategoryFitness, Tags: []string{"yoga"}}
	if err := p.Save(ctx, pref); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err = p.Read(ctx, "u", model.CategoryFitness)
	if err != nil || got == nil || len(got.Tags) != 1 || got.Tags[0] != "yoga" {
		t.Fatalf("Read() = %+v, %v", got, err)
	}

	if err := p.Save(ctx, model.UserPreference{UserID: "u", Category: "bogus"}); !errors.Is(err, model.ErrInvalidCategory) {
		t.Errorf("Save(bad category) error = %v", err)
	}
}
