package cookbook

import (
	"context"
	"sync"
	"time"

	"github.com/robrary/cookbook/recipe"
)

// RecipeCache is an in-memory copy of the recipe list with a TTL. Writes go
// through to the record store and invalidate the cache.
type RecipeCache struct {
	mu      sync.RWMutex
	recipes []recipe.Recipe
	tags    []string
	fetched time.Time
	ttl     time.Duration
	store   RecordStore
}

// NewRecipeCache creates a RecipeCache backed by the given store.
func NewRecipeCache(s RecordStore, ttl time.Duration) *RecipeCache {
	return &RecipeCache{store: s, ttl: ttl}
}

func (c *RecipeCache) valid() bool {
	return c.recipes != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *RecipeCache) Invalidate() {
	c.mu.Lock()
	c.recipes = nil
	c.tags = nil
	c.mu.Unlock()
}

// ensureLoaded returns cached recipes and tags after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *RecipeCache) ensureLoaded(ctx context.Context) ([]recipe.Recipe, []string, error) {
	c.mu.RLock()
	if c.valid() {
		recipes, tags := c.recipes, c.tags
		c.mu.RUnlock()
		return recipes, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid() {
		recipes, err := c.store.ListRecipes(ctx)
		if err != nil {
			return nil, nil, err
		}
		c.recipes = recipes
		c.tags = recipe.AllTags(recipes)
		c.fetched = time.Now()
	}
	return c.recipes, c.tags, nil
}

// List returns all recipes ordered by title. Callers must not modify the result.
func (c *RecipeCache) List(ctx context.Context) ([]recipe.Recipe, error) {
	recipes, _, err := c.ensureLoaded(ctx)
	return recipes, err
}

// Tags returns every distinct tag in display order.
func (c *RecipeCache) Tags(ctx context.Context) ([]string, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

// Get returns a single recipe from the cache.
func (c *RecipeCache) Get(ctx context.Context, id int64) (recipe.Recipe, error) {
	recipes, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return recipe.Recipe{}, err
	}
	for _, r := range recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return recipe.Recipe{}, recipe.ErrNotFound
}

// Create inserts a recipe and invalidates the cache.
func (c *RecipeCache) Create(ctx context.Context, r recipe.Recipe) (int64, error) {
	id, err := c.store.CreateRecipe(ctx, r)
	if err == nil {
		c.Invalidate()
	}
	return id, err
}

// Update replaces a recipe and invalidates the cache.
func (c *RecipeCache) Update(ctx context.Context, id int64, r recipe.Recipe) error {
	err := c.store.UpdateRecipe(ctx, id, r)
	if err == nil {
		c.Invalidate()
	}
	return err
}

// Delete removes a recipe and invalidates the cache.
func (c *RecipeCache) Delete(ctx context.Context, id int64) error {
	err := c.store.DeleteRecipe(ctx, id)
	if err == nil {
		c.Invalidate()
	}
	return err
}
