package recipe

import (
	"strings"
	"testing"
)

func validFields() map[string]any {
	return map[string]any{
		"title":       "Soup",
		"ingredients": []any{"1 cup water"},
		"directions":  []any{"Boil water"},
	}
}

func TestValidateAcceptsMinimalRecipe(t *testing.T) {
	if errs := Validate(validFields()); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateCollectsEveryField(t *testing.T) {
	errs := Validate(map[string]any{
		"title":     "   ",
		"serves":    4.0,
		"cook_time": strings.Repeat("x", 101),
		"tags":      "dinner",
		"image_url": 12.0,
	})
	want := []string{
		"Title is required",
		"Serves must be a string",
		"Cook time must be 100 characters or less",
		"Ingredients must be an array",
		"Directions must be an array",
		"Tags must be an array",
		"Image URL must be a string",
	}
	if len(errs) != len(want) {
		t.Fatalf("errors = %v, want %v", errs, want)
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Errorf("errs[%d] = %q, want %q", i, errs[i], want[i])
		}
	}
}

func TestValidateListEntries(t *testing.T) {
	tests := []struct {
		name   string
		modify func(map[string]any)
		want   string
	}{
		{"empty ingredients", func(f map[string]any) { f["ingredients"] = []any{} }, "At least one ingredient is required"},
		{"empty directions", func(f map[string]any) { f["directions"] = []any{} }, "At least one direction is required"},
		{"non-string ingredient", func(f map[string]any) { f["ingredients"] = []any{"ok", 3.0, 4.0} }, "Ingredient at index 1 must be a string"},
		{"long ingredient", func(f map[string]any) { f["ingredients"] = []any{strings.Repeat("a", 501)} }, "Ingredient at index 0 exceeds 500 character limit"},
		{"long direction", func(f map[string]any) { f["directions"] = []any{"ok", strings.Repeat("a", 2001)} }, "Direction at index 1 exceeds 2000 character limit"},
		{"long tag", func(f map[string]any) { f["tags"] = []any{strings.Repeat("t", 51)} }, "Tag at index 0 exceeds 50 character limit"},
		{"long title", func(f map[string]any) { f["title"] = strings.Repeat("t", 201) }, "Title must be 200 characters or less"},
		{"long image url", func(f map[string]any) { f["image_url"] = strings.Repeat("u", 501) }, "Image URL must be 500 characters or less"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.modify(f)
			errs := Validate(f)
			if len(errs) != 1 || errs[0] != tt.want {
				t.Fatalf("errors = %v, want [%q]", errs, tt.want)
			}
		})
	}
}

func TestValidateStopsAtFirstBadEntryPerField(t *testing.T) {
	f := validFields()
	f["ingredients"] = []any{1.0, 2.0, 3.0}
	f["directions"] = []any{true, false}
	errs := Validate(f)
	if len(errs) != 2 {
		t.Fatalf("expected one error per field, got %v", errs)
	}
}

func TestValidateOptionalNullsAreAccepted(t *testing.T) {
	f := validFields()
	f["serves"] = nil
	f["cook_time"] = nil
	f["tags"] = nil
	f["image_url"] = ""
	if errs := Validate(f); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateCountsCharactersNotBytes(t *testing.T) {
	f := validFields()
	f["title"] = strings.Repeat("é", 200)
	if errs := Validate(f); len(errs) != 0 {
		t.Fatalf("expected 200 two-byte characters to pass, got %v", errs)
	}
}

func TestValidateRecipeFields(t *testing.T) {
	r := Recipe{Title: "Soup", Ingredients: []string{"water"}}
	errs := Validate(r.Fields())
	if len(errs) != 1 || errs[0] != "At least one direction is required" {
		t.Fatalf("errors = %v", errs)
	}
}

func TestDecodeNormalizes(t *testing.T) {
	body := []byte(`{"title":"  Soup  ","serves":"","ingredients":["water"],"directions":["boil"],"image_url":""}`)
	r, details, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(details) != 0 {
		t.Fatalf("details = %v", details)
	}
	if r.Title != "Soup" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Serves != nil || r.ImageURL != nil {
		t.Errorf("expected empty optionals to be nil, got %v %v", r.Serves, r.ImageURL)
	}
	if r.Tags == nil || len(r.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty list", r.Tags)
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	if _, _, err := Decode([]byte(`["not","an","object"]`)); err == nil {
		t.Fatal("expected error for array body")
	}
}
