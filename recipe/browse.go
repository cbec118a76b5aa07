package recipe

import (
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortOrder names a recipe list ordering.
type SortOrder string

const (
	SortTitle     SortOrder = "title"
	SortTitleDesc SortOrder = "title-desc"
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortFavorites SortOrder = "favorites"
)

// ParseSortOrder maps a query or preference value to a SortOrder.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch o := SortOrder(strings.TrimSpace(s)); o {
	case SortTitle, SortTitleDesc, SortNewest, SortOldest, SortFavorites:
		return o, true
	}
	return SortTitle, false
}

// State is the browsing state of a cookbook view. Every method returns a new
// State and leaves the receiver untouched, so a sequence of user actions is a
// sequence of pure transitions.
type State struct {
	Query        string    `json:"query"`
	SelectedTags []string  `json:"selected_tags"`
	Sort         SortOrder `json:"sort"`
	Favorites    []int64   `json:"favorites"`
	Multiplier   float64   `json:"multiplier"`
}

// NewState returns the initial state: no filters, title order, unscaled.
func NewState() State {
	return State{Sort: SortTitle, Multiplier: 1}
}

func (s State) WithQuery(q string) State {
	s.Query = q
	return s
}

// ToggleTag adds tag to the selected filters, or removes it if already selected.
func (s State) ToggleTag(tag string) State {
	if i := slices.Index(s.SelectedTags, tag); i >= 0 {
		s.SelectedTags = slices.Delete(slices.Clone(s.SelectedTags), i, i+1)
		return s
	}
	s.SelectedTags = append(slices.Clone(s.SelectedTags), tag)
	return s
}

// ResetFilters clears the search query and tag filters.
func (s State) ResetFilters() State {
	s.Query = ""
	s.SelectedTags = nil
	return s
}

func (s State) WithSort(o SortOrder) State {
	s.Sort = o
	return s
}

// ToggleFavorite marks id as a favorite, or unmarks it.
func (s State) ToggleFavorite(id int64) State {
	if i := slices.Index(s.Favorites, id); i >= 0 {
		s.Favorites = slices.Delete(slices.Clone(s.Favorites), i, i+1)
		return s
	}
	s.Favorites = append(slices.Clone(s.Favorites), id)
	return s
}

func (s State) IsFavorite(id int64) bool {
	return slices.Contains(s.Favorites, id)
}

// Serving multiplier bounds.
const (
	MinMultiplier = 0.25
	MaxMultiplier = 100
)

// ValidMultiplier reports whether m lies within [MinMultiplier, MaxMultiplier].
func ValidMultiplier(m float64) bool {
	return m >= MinMultiplier && m <= MaxMultiplier
}

// WithMultiplier sets the serving multiplier, clamped to the valid range.
// Non-positive values reset it to 1.
func (s State) WithMultiplier(m float64) State {
	if !(m > 0) {
		m = 1
	}
	s.Multiplier = min(max(m, MinMultiplier), MaxMultiplier)
	return s
}

// Ingredients returns r's ingredients scaled by the current multiplier.
func (s State) Ingredients(r Recipe) []string {
	m := s.Multiplier
	if m <= 0 {
		m = 1
	}
	return ScaleIngredients(r.Ingredients, m)
}

// Visible returns the recipes matching the query and tag filters, in sort order.
func (s State) Visible(recipes []Recipe) []Recipe {
	return Sort(Filter(recipes, s.Query, s.SelectedTags), s.Sort, s.Favorites)
}

// Filter keeps recipes whose title or any ingredient contains query
// (case-insensitive) and which carry every tag in tags.
func Filter(recipes []Recipe, query string, tags []string) []Recipe {
	q := strings.ToLower(query)
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if !matchesQuery(r, q) {
			continue
		}
		if !hasAllTags(r, tags) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesQuery(r Recipe, q string) bool {
	if strings.Contains(strings.ToLower(r.Title), q) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing), q) {
			return true
		}
	}
	return false
}

func hasAllTags(r Recipe, tags []string) bool {
	for _, t := range tags {
		if !slices.Contains(r.Tags, t) {
			return false
		}
	}
	return true
}

// Sort returns a sorted copy of recipes. Titles compare with English collation;
// unknown orders fall back to title order.
func Sort(recipes []Recipe, order SortOrder, favorites []int64) []Recipe {
	sorted := slices.Clone(recipes)
	col := collate.New(language.English, collate.IgnoreCase)
	byTitle := func(a, b Recipe) int { return col.CompareString(a.Title, b.Title) }

	switch order {
	case SortTitleDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return byTitle(sorted[j], sorted[i]) < 0 })
	case SortNewest:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	case SortOldest:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	case SortFavorites:
		sort.SliceStable(sorted, func(i, j int) bool {
			fi, fj := slices.Contains(favorites, sorted[i].ID), slices.Contains(favorites, sorted[j].ID)
			if fi != fj {
				return fi
			}
			return byTitle(sorted[i], sorted[j]) < 0
		})
	default:
		sort.SliceStable(sorted, func(i, j int) bool { return byTitle(sorted[i], sorted[j]) < 0 })
	}
	return sorted
}

// AllTags returns the distinct non-blank tags across recipes, sorted.
func AllTags(recipes []Recipe) []string {
	set := make(map[string]struct{})
	for _, r := range recipes {
		for _, t := range r.Tags {
			if strings.TrimSpace(t) != "" {
				set[t] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
