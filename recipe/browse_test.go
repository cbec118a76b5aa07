package recipe

import (
	"reflect"
	"testing"
)

func sampleRecipes() []Recipe {
	return []Recipe{
		{ID: 1, Title: "banana bread", Ingredients: []string{"3 bananas", "2 cups flour"}, Tags: []string{"Dessert", "Breakfast"}},
		{ID: 2, Title: "Apple Pie", Ingredients: []string{"6 apples", "1 crust"}, Tags: []string{"Dessert"}},
		{ID: 3, Title: "Chili", Ingredients: []string{"1 lb beef", "2 cans beans"}, Tags: []string{"Main Dish"}},
	}
}

func titles(rs []Recipe) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

func TestSortOrders(t *testing.T) {
	tests := []struct {
		order     SortOrder
		favorites []int64
		want      []string
	}{
		{SortTitle, nil, []string{"Apple Pie", "banana bread", "Chili"}},
		{SortTitleDesc, nil, []string{"Chili", "banana bread", "Apple Pie"}},
		{SortNewest, nil, []string{"Chili", "Apple Pie", "banana bread"}},
		{SortOldest, nil, []string{"banana bread", "Apple Pie", "Chili"}},
		{SortFavorites, []int64{3}, []string{"Chili", "Apple Pie", "banana bread"}},
		{SortOrder("bogus"), nil, []string{"Apple Pie", "banana bread", "Chili"}},
	}
	for _, tt := range tests {
		got := titles(Sort(sampleRecipes(), tt.order, tt.favorites))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Sort(%q) = %v, want %v", tt.order, got, tt.want)
		}
	}
}

func TestFilterByQueryAndTags(t *testing.T) {
	got := titles(Filter(sampleRecipes(), "FLOUR", nil))
	if !reflect.DeepEqual(got, []string{"banana bread"}) {
		t.Errorf("ingredient query = %v", got)
	}
	got = titles(Filter(sampleRecipes(), "", []string{"Dessert", "Breakfast"}))
	if !reflect.DeepEqual(got, []string{"banana bread"}) {
		t.Errorf("tag filter = %v", got)
	}
	if got := Filter(sampleRecipes(), "", nil); len(got) != 3 {
		t.Errorf("empty filter kept %d recipes", len(got))
	}
}

func TestStateTransitionsArePure(t *testing.T) {
	s0 := NewState()
	s1 := s0.ToggleTag("Dessert")
	s2 := s1.ToggleTag("Breakfast")
	s3 := s2.ToggleTag("Dessert")

	if len(s0.SelectedTags) != 0 {
		t.Fatalf("initial state mutated: %v", s0.SelectedTags)
	}
	if !reflect.DeepEqual(s2.SelectedTags, []string{"Dessert", "Breakfast"}) {
		t.Fatalf("s2 tags = %v", s2.SelectedTags)
	}
	if !reflect.DeepEqual(s3.SelectedTags, []string{"Breakfast"}) {
		t.Fatalf("s3 tags = %v", s3.SelectedTags)
	}
	if !reflect.DeepEqual(s2.SelectedTags, []string{"Dessert", "Breakfast"}) {
		t.Fatalf("toggle off mutated previous state: %v", s2.SelectedTags)
	}

	f := s0.ToggleFavorite(2).ToggleFavorite(3)
	if !f.IsFavorite(2) || !f.IsFavorite(3) {
		t.Fatalf("favorites = %v", f.Favorites)
	}
	if f.ToggleFavorite(2).IsFavorite(2) {
		t.Fatal("expected favorite to be removed")
	}
	if !f.IsFavorite(2) {
		t.Fatal("removing favorite mutated previous state")
	}
}

func TestStateVisible(t *testing.T) {
	s := NewState().WithQuery("bread").WithSort(SortNewest)
	if got := titles(s.Visible(sampleRecipes())); !reflect.DeepEqual(got, []string{"banana bread"}) {
		t.Errorf("Visible = %v", got)
	}
	s = s.ResetFilters()
	if got := s.Visible(sampleRecipes()); len(got) != 3 {
		t.Errorf("after reset Visible kept %d", len(got))
	}
}

func TestStateMultiplier(t *testing.T) {
	s := NewState().WithMultiplier(2)
	got := s.Ingredients(sampleRecipes()[0])
	want := []string{"6 bananas", "4 cups flour"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ingredients = %v, want %v", got, want)
	}
	if s.WithMultiplier(-1).Multiplier != 1 {
		t.Error("expected non-positive multiplier to reset to 1")
	}
	if got := s.WithMultiplier(0.0001).Multiplier; got != MinMultiplier {
		t.Errorf("tiny multiplier clamped to %v, want %v", got, MinMultiplier)
	}
	if got := s.WithMultiplier(1e6).Multiplier; got != MaxMultiplier {
		t.Errorf("huge multiplier clamped to %v, want %v", got, MaxMultiplier)
	}
	if ValidMultiplier(0.1) || !ValidMultiplier(0.25) || !ValidMultiplier(100) || ValidMultiplier(101) {
		t.Error("ValidMultiplier bounds")
	}
}

func TestAllTags(t *testing.T) {
	got := AllTags(sampleRecipes())
	want := []string{"Breakfast", "Dessert", "Main Dish"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllTags = %v, want %v", got, want)
	}
}

func TestStepNumbersSkipSections(t *testing.T) {
	got := StepNumbers([]string{Section("Prep"), "Chop onions", "Heat oil", Section("Cook"), "Fry"})
	want := []int{0, 1, 2, 0, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StepNumbers = %v, want %v", got, want)
	}
	if Section("Prep") != "__SECTION__Prep" {
		t.Errorf("Section = %q", Section("Prep"))
	}
}

func TestDecodeTagsFallback(t *testing.T) {
	tests := []struct {
		raw      string
		want     []string
		fallback bool
	}{
		{`["a","b"]`, []string{"a", "b"}, false},
		{``, []string{}, false},
		{`null`, []string{}, false},
		{`dinner, quick ,`, []string{"dinner", "quick"}, true},
		{`{broken`, []string{"{broken"}, true},
	}
	for _, tt := range tests {
		got, fb := DecodeTags(tt.raw)
		if !reflect.DeepEqual(got, tt.want) || fb != tt.fallback {
			t.Errorf("DecodeTags(%q) = %v, %v; want %v, %v", tt.raw, got, fb, tt.want, tt.fallback)
		}
	}
}
