package cookbook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/robrary/cookbook/recipe"
	"github.com/robrary/cookbook/views"
)

func (a *App) handleListRecipes(c echo.Context) error {
	recipes, err := a.Cache.List(c.Request().Context())
	if err != nil {
		return err
	}
	state := recipe.NewState().WithQuery(strings.TrimSpace(c.QueryParam("q")))
	for _, tag := range splitTags(c.QueryParam("tags")) {
		if !slices.Contains(state.SelectedTags, tag) {
			state = state.ToggleTag(tag)
		}
	}

	cacheControl := "public, max-age=60"
	if sortParam := c.QueryParam("sort"); sortParam != "" {
		order, ok := recipe.ParseSortOrder(sortParam)
		if !ok {
			return jsonError(c, http.StatusBadRequest, "Unknown sort order")
		}
		state = state.WithSort(order)
		if order == recipe.SortFavorites {
			state.Favorites = a.loadPreferences(c).Favorites
			cacheControl = "private, no-store"
		}
	}
	c.Response().Header().Set("Cache-Control", cacheControl)
	return c.JSON(http.StatusOK, state.Visible(recipes))
}

func (a *App) handleListTags(c echo.Context) error {
	tags, err := a.Cache.Tags(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=60")
	return c.JSON(http.StatusOK, tags)
}

func (a *App) handleGetRecipe(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return jsonError(c, http.StatusNotFound, "Not Found")
	}
	r, err := a.Cache.Get(c.Request().Context(), id)
	if errors.Is(err, recipe.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "Recipe not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// decodeRecipe reads and validates a recipe body. It writes the error response
// itself and reports false when the body is unusable.
func decodeRecipe(c echo.Context) (recipe.Recipe, bool, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return recipe.Recipe{}, false, err
	}
	r, details, err := recipe.Decode(body)
	if err != nil {
		return recipe.Recipe{}, false, jsonError(c, http.StatusBadRequest, "Invalid JSON body")
	}
	if len(details) > 0 {
		return recipe.Recipe{}, false, jsonError(c, http.StatusBadRequest, "Validation failed", details...)
	}
	return r, true, nil
}

func (a *App) handleCreateRecipe(c echo.Context) error {
	r, ok, err := decodeRecipe(c)
	if !ok {
		return err
	}
	id, err := a.Cache.Create(c.Request().Context(), r)
	if err != nil {
		return err
	}
	a.Log.Info("recipe created", "id", id, "title", r.Title)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "id": id})
}

// handleUpdateRecipe writes the row first and only then removes a replaced
// image, so a failed update never leaves the row pointing at a deleted blob.
// A failed cleanup leaves an orphaned blob, which is logged.
func (a *App) handleUpdateRecipe(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return jsonError(c, http.StatusNotFound, "Not Found")
	}
	r, ok, err := decodeRecipe(c)
	if !ok {
		return err
	}
	ctx := c.Request().Context()
	existing, err := a.Records.GetRecipe(ctx, id)
	if errors.Is(err, recipe.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "Recipe not found")
	}
	if err != nil {
		return err
	}
	if err := a.Cache.Update(ctx, id, r); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "Recipe not found")
		}
		return err
	}
	if old := existing.ImageURLValue(); old != "" && old != r.ImageURLValue() {
		a.deleteImageURL(ctx, old)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (a *App) handleDeleteRecipe(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return jsonError(c, http.StatusNotFound, "Not Found")
	}
	ctx := c.Request().Context()
	existing, err := a.Records.GetRecipe(ctx, id)
	if errors.Is(err, recipe.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "Recipe not found")
	}
	if err != nil {
		return err
	}
	if err := a.Cache.Delete(ctx, id); err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "Recipe not found")
		}
		return err
	}
	if old := existing.ImageURLValue(); old != "" {
		a.deleteImageURL(ctx, old)
	}
	a.Log.Info("recipe deleted", "id", id)
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// deleteImageURL removes a locally hosted image. External URLs are ignored.
func (a *App) deleteImageURL(ctx context.Context, imageURL string) {
	key := ImageKeyFromURL(imageURL)
	if key == "" {
		return
	}
	if err := a.Blobs.DeleteImage(ctx, key); err != nil {
		a.Log.Warn("image cleanup failed", "key", key, "err", err)
	}
}

func (a *App) handleSharePage(c echo.Context) error {
	site := a.site(c)
	id, ok := parseID(c)
	if !ok {
		return RenderStatus(c, http.StatusNotFound, views.NotFound(site))
	}
	r, err := a.Cache.Get(c.Request().Context(), id)
	if errors.Is(err, recipe.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, views.NotFound(site))
	}
	if err != nil {
		return err
	}

	state := recipe.NewState()
	if s := c.QueryParam("scale"); s != "" {
		if m, err := strconv.ParseFloat(s, 64); err == nil && recipe.ValidMultiplier(m) {
			state = state.WithMultiplier(m)
		}
	}
	pageURL := BuildURL(site.URL, "recipes", strconv.FormatInt(id, 10))
	return Render(c, views.Recipe(views.RecipePage{
		Site: site,
		Meta: views.PageMeta{
			Title:       r.Title,
			Description: views.Describe(r),
			URL:         pageURL,
			Image:       r.ImageURLValue(),
		},
		Recipe:      r,
		Ingredients: state.Ingredients(r),
		Multiplier:  state.Multiplier,
		JSONLD:      views.RecipeJsonLD(site, r, pageURL),
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	recipes, err := a.Cache.List(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, recipes)
}

func (a *App) handleFeed(c echo.Context) error {
	recipes, err := a.Cache.List(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, recipes)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= http.StatusInternalServerError {
		a.Log.Error("server error", "method", c.Request().Method, "uri", c.Request().RequestURI, "err", err)
		msg = http.StatusText(code)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = jsonError(c, code, msg)
		return
	}
	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, views.NotFound(a.site(c)))
	case code >= http.StatusInternalServerError:
		_ = RenderStatus(c, code, views.ServerError(a.site(c)))
	default:
		_ = c.String(code, msg)
	}
}
