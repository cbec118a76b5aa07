package views

import "github.com/robrary/cookbook/recipe"

// SiteConfig holds site-wide settings passed to every page.
type SiteConfig struct {
	Name string
	URL  string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	Image       string
}

// RecipePage is the view model of a shared recipe.
type RecipePage struct {
	Site        SiteConfig
	Meta        PageMeta
	Recipe      recipe.Recipe
	Ingredients []string // scaled for Multiplier
	Multiplier  float64
	JSONLD      string
}
