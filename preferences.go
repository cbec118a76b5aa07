package cookbook

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/robrary/cookbook/recipe"
)

const prefsKey = "prefs"

// Preferences are per-browser settings kept in a signed cookie.
type Preferences struct {
	Favorites []int64          `json:"favorites"`
	Sort      recipe.SortOrder `json:"sort"`
	Theme     string           `json:"theme"`
}

func defaultPreferences() Preferences {
	return Preferences{Favorites: []int64{}, Sort: recipe.SortTitle, Theme: "system"}
}

func validTheme(t string) bool {
	return t == "light" || t == "dark" || t == "system"
}

// state projects preferences onto a browse state.
func (p Preferences) state() recipe.State {
	s := recipe.NewState().WithSort(p.Sort)
	s.Favorites = p.Favorites
	return s
}

func (a *App) loadPreferences(c echo.Context) Preferences {
	prefs := defaultPreferences()
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return prefs
	}
	raw, ok := sess.Values[prefsKey].(string)
	if !ok {
		return prefs
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		a.Log.Warn("discarding unreadable preferences cookie", "err", err)
		return defaultPreferences()
	}
	if prefs.Favorites == nil {
		prefs.Favorites = []int64{}
	}
	if _, ok := recipe.ParseSortOrder(string(prefs.Sort)); !ok {
		prefs.Sort = recipe.SortTitle
	}
	if !validTheme(prefs.Theme) {
		prefs.Theme = "system"
	}
	return prefs
}

func (a *App) savePreferences(c echo.Context, prefs Preferences) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	sess.Values[prefsKey] = string(raw)
	return sess.Save(c.Request(), c.Response())
}

func (a *App) handleGetPreferences(c echo.Context) error {
	return c.JSON(http.StatusOK, a.loadPreferences(c))
}

func (a *App) handlePutPreferences(c echo.Context) error {
	var in struct {
		Favorites *[]int64 `json:"favorites"`
		Sort      *string  `json:"sort"`
		Theme     *string  `json:"theme"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&in); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid JSON body")
	}
	prefs := a.loadPreferences(c)
	if in.Sort != nil {
		order, ok := recipe.ParseSortOrder(*in.Sort)
		if !ok {
			return jsonError(c, http.StatusBadRequest, "Unknown sort order")
		}
		prefs.Sort = order
	}
	if in.Theme != nil {
		if !validTheme(*in.Theme) {
			return jsonError(c, http.StatusBadRequest, "Theme must be light, dark or system")
		}
		prefs.Theme = *in.Theme
	}
	if in.Favorites != nil {
		favorites := []int64{}
		for _, id := range *in.Favorites {
			if id > 0 && !slices.Contains(favorites, id) {
				favorites = append(favorites, id)
			}
		}
		prefs.Favorites = favorites
	}
	if err := a.savePreferences(c, prefs); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prefs)
}

func (a *App) handleToggleFavorite(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return jsonError(c, http.StatusNotFound, "Not Found")
	}
	prefs := a.loadPreferences(c)
	state := prefs.state().ToggleFavorite(id)
	prefs.Favorites = state.Favorites
	if prefs.Favorites == nil {
		prefs.Favorites = []int64{}
	}
	if err := a.savePreferences(c, prefs); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"favorite":  state.IsFavorite(id),
		"favorites": prefs.Favorites,
	})
}
