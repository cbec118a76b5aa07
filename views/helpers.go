package views

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/robrary/cookbook/recipe"
)

// RecipeJsonLD produces a Schema.org Recipe JSON-LD block. Section markers are
// emitted as HowToSection groups so the markup round-trips through an importer.
func RecipeJsonLD(site SiteConfig, r recipe.Recipe, pageURL string) string {
	data := map[string]any{
		"@context":           "https://schema.org",
		"@type":              "Recipe",
		"name":               r.Title,
		"url":                pageURL,
		"recipeIngredient":   r.Ingredients,
		"recipeInstructions": howToSteps(r.Directions),
	}
	if r.Serves != nil {
		data["recipeYield"] = *r.Serves
	}
	if r.CookTime != nil {
		data["totalTime"] = *r.CookTime
	}
	if r.ImageURL != nil {
		data["image"] = *r.ImageURL
	}
	if len(r.Tags) > 0 {
		data["keywords"] = strings.Join(r.Tags, ", ")
	}
	if site.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  site.Name,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func howToSteps(directions []string) []any {
	steps := []any{}
	var section map[string]any
	for _, d := range directions {
		if recipe.IsSection(d) {
			section = map[string]any{
				"@type":           "HowToSection",
				"name":            recipe.SectionTitle(d),
				"itemListElement": []any{},
			}
			steps = append(steps, section)
			continue
		}
		step := map[string]any{"@type": "HowToStep", "text": d}
		if section != nil {
			section["itemListElement"] = append(section["itemListElement"].([]any), step)
		} else {
			steps = append(steps, step)
		}
	}
	return steps
}

// FormatMultiplier renders a serving multiplier such as "2", "0.5" or "1.5".
func FormatMultiplier(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

// Describe returns a short description for meta tags.
func Describe(r recipe.Recipe) string {
	parts := []string{}
	if r.Serves != nil {
		parts = append(parts, "Serves "+*r.Serves)
	}
	if r.CookTime != nil {
		parts = append(parts, *r.CookTime)
	}
	parts = append(parts, strconv.Itoa(len(r.Ingredients))+" ingredients")
	return strings.Join(parts, " · ")
}
