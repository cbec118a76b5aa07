package cookbook

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/robrary/cookbook/recipe"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test_recipes.db"), WithStoreLogger(quietLogger()))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func soupRecipe() recipe.Recipe {
	return recipe.Recipe{
		Title:       "Soup",
		Serves:      recipe.StringPtr("4"),
		Ingredients: []string{"1 onion", "2 cups stock"},
		Directions:  []string{recipe.Section("Prep"), "Chop onion", "Simmer"},
		Tags:        []string{"dinner", "vegan"},
	}
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	recipes, err := s.ListRecipes(context.Background())
	if err != nil {
		t.Fatalf("ListRecipes failed: %v", err)
	}
	if recipes == nil || len(recipes) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", recipes)
	}
}

func TestCreateAndGetRecipe(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRecipe(ctx, soupRecipe())
	if err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	got, err := s.GetRecipe(ctx, id)
	if err != nil {
		t.Fatalf("GetRecipe failed: %v", err)
	}
	if got.ID != id || got.Title != "Soup" {
		t.Errorf("unexpected recipe %+v", got)
	}
	if got.Serves == nil || *got.Serves != "4" {
		t.Errorf("serves: got %v", got.Serves)
	}
	if got.CookTime != nil || got.ImageURL != nil {
		t.Errorf("absent optional fields should be nil, got %v %v", got.CookTime, got.ImageURL)
	}
	if !slices.Equal(got.Directions, soupRecipe().Directions) {
		t.Errorf("directions: got %v", got.Directions)
	}
	if !slices.Equal(got.Tags, []string{"dinner", "vegan"}) {
		t.Errorf("tags: got %v", got.Tags)
	}
}

func TestGetRecipeNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetRecipe(context.Background(), 42)
	if !errors.Is(err, recipe.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRecipesOrderedByTitle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, title := range []string{"Waffles", "Apple pie", "Muffins"} {
		r := soupRecipe()
		r.Title = title
		if _, err := s.CreateRecipe(ctx, r); err != nil {
			t.Fatalf("CreateRecipe failed: %v", err)
		}
	}
	recipes, err := s.ListRecipes(ctx)
	if err != nil {
		t.Fatalf("ListRecipes failed: %v", err)
	}
	var titles []string
	for _, r := range recipes {
		titles = append(titles, r.Title)
	}
	if !slices.Equal(titles, []string{"Apple pie", "Muffins", "Waffles"}) {
		t.Errorf("unexpected order %v", titles)
	}
}

func TestUpdateRecipe(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id, err := s.CreateRecipe(ctx, soupRecipe())
	if err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}

	updated := soupRecipe()
	updated.Title = "  Better soup  "
	updated.Serves = nil
	updated.ImageURL = recipe.StringPtr("https://example.com/soup.jpg")
	if err := s.UpdateRecipe(ctx, id, updated); err != nil {
		t.Fatalf("UpdateRecipe failed: %v", err)
	}

	got, err := s.GetRecipe(ctx, id)
	if err != nil {
		t.Fatalf("GetRecipe failed: %v", err)
	}
	if got.Title != "Better soup" {
		t.Errorf("title should be trimmed, got %q", got.Title)
	}
	if got.Serves != nil {
		t.Errorf("serves should be cleared, got %q", *got.Serves)
	}
	if got.ImageURLValue() != "https://example.com/soup.jpg" {
		t.Errorf("image url: got %q", got.ImageURLValue())
	}

	if err := s.UpdateRecipe(ctx, id+100, updated); !errors.Is(err, recipe.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating missing id, got %v", err)
	}
}

func TestDeleteRecipe(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id, err := s.CreateRecipe(ctx, soupRecipe())
	if err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	if err := s.DeleteRecipe(ctx, id); err != nil {
		t.Fatalf("DeleteRecipe failed: %v", err)
	}
	if _, err := s.GetRecipe(ctx, id); !errors.Is(err, recipe.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteRecipe(ctx, id); !errors.Is(err, recipe.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestMalformedTagsFallBackToCommaSplit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id, err := s.CreateRecipe(ctx, soupRecipe())
	if err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE recipes SET tags = ? WHERE id = ?`, "dinner, quick", id); err != nil {
		t.Fatalf("raw update failed: %v", err)
	}
	got, err := s.GetRecipe(ctx, id)
	if err != nil {
		t.Fatalf("GetRecipe failed: %v", err)
	}
	if !slices.Equal(got.Tags, []string{"dinner", "quick"}) {
		t.Errorf("tags: got %v", got.Tags)
	}
}

func TestMalformedListColumnsDegrade(t *testing.T) {
	var logs bytes.Buffer
	s, err := NewStore(filepath.Join(t.TempDir(), "recipes.db"),
		WithStoreLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	good := soupRecipe()
	if _, err := s.CreateRecipe(ctx, good); err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	bad := soupRecipe()
	bad.Title = "Stew"
	badID, err := s.CreateRecipe(ctx, bad)
	if err != nil {
		t.Fatalf("CreateRecipe failed: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE recipes SET ingredients = 'not json', directions = '{' WHERE id = ?`, badID); err != nil {
		t.Fatalf("raw update failed: %v", err)
	}

	recipes, err := s.ListRecipes(ctx)
	if err != nil {
		t.Fatalf("ListRecipes failed: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected both recipes, got %d", len(recipes))
	}
	if recipes[0].Title != "Soup" || !slices.Equal(recipes[0].Ingredients, good.Ingredients) {
		t.Errorf("good row changed: %+v", recipes[0])
	}
	stew := recipes[1]
	if stew.ID != badID || stew.Ingredients == nil || len(stew.Ingredients) != 0 || len(stew.Directions) != 0 {
		t.Errorf("bad row should degrade to empty lists, got %+v", stew)
	}
	if !slices.Equal(stew.Tags, bad.Tags) {
		t.Errorf("tags should survive, got %v", stew.Tags)
	}

	out := logs.String()
	for _, want := range []string{"malformed ingredients column", "malformed directions column", "recipe_id=" + itoa(badID)} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestImageBlobs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetImage(ctx, "missing.png"); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}

	data := []byte("not really a png")
	if err := s.PutImage(ctx, "imported/1-abc.png", data, "image/png"); err != nil {
		t.Fatalf("PutImage failed: %v", err)
	}
	img, err := s.GetImage(ctx, "imported/1-abc.png")
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if string(img.Data) != string(data) || img.ContentType != "image/png" {
		t.Errorf("unexpected image %q %q", img.Data, img.ContentType)
	}
	if img.ETag != ETag(data) {
		t.Errorf("etag: got %q want %q", img.ETag, ETag(data))
	}
	if img.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}

	if err := s.DeleteImage(ctx, "imported/1-abc.png"); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	if _, err := s.GetImage(ctx, "imported/1-abc.png"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound after delete, got %v", err)
	}
	if err := s.DeleteImage(ctx, "imported/1-abc.png"); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
}
