package importer

import (
	"bytes"
	"encoding/json"
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/robrary/cookbook/recipe"
)

const ldJSONType = "application/ld+json"

// ExtractStructured looks for a schema.org Recipe in the page's JSON-LD blocks.
// It reports false when no recipe with both ingredients and directions exists.
func ExtractStructured(doc *goquery.Document) (recipe.Recipe, bool) {
	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
	var found map[string]any
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		typ, _ := s.Attr("type")
		if !strings.EqualFold(strings.TrimSpace(typ), ldJSONType) {
			return true
		}
		raw := []byte(s.Text())
		var payload any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return true
		}
		found = findRecipeNode(raw, payload)
		return found == nil
	})
	if found == nil {
		return recipe.Recipe{}, false
	}
	r := mapRecipeNode(found, pageTitle)
	if len(r.Ingredients) == 0 || len(r.Directions) == 0 {
		return recipe.Recipe{}, false
	}
	return r, true
}

// findRecipeNode searches the graph first, then array properties of the top
// object in the order they appear in raw.
func findRecipeNode(raw []byte, payload any) map[string]any {
	if n := searchGraph(payload); n != nil {
		return n
	}
	top, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	for _, k := range objectKeys(raw) {
		items, ok := top[k].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			if n, ok := item.(map[string]any); ok && isRecipe(n) {
				return n
			}
		}
	}
	return nil
}

// objectKeys lists the keys of the JSON object in raw in document order.
func objectKeys(raw []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
		keys = append(keys, key)
	}
	return keys
}

// searchGraph walks arrays and @graph collections depth first.
func searchGraph(v any) map[string]any {
	switch n := v.(type) {
	case []any:
		for _, item := range n {
			if found := searchGraph(item); found != nil {
				return found
			}
		}
	case map[string]any:
		if isRecipe(n) {
			return n
		}
		if g, ok := n["@graph"]; ok {
			return searchGraph(g)
		}
	}
	return nil
}

func isRecipe(n map[string]any) bool {
	return hasType(n, "Recipe")
}

// hasType matches @type values such as "Recipe", ["Recipe","NewsArticle"] or
// "http://schema.org/Recipe".
func hasType(n map[string]any, want string) bool {
	match := func(s string) bool {
		s = strings.TrimSpace(s)
		return s == want || strings.HasSuffix(s, "/"+want) || strings.HasSuffix(s, ":"+want)
	}
	switch t := n["@type"].(type) {
	case string:
		return match(t)
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && match(s) {
				return true
			}
		}
	}
	return false
}

func mapRecipeNode(n map[string]any, pageTitle string) recipe.Recipe {
	title := cleanText(stringField(n, "name"))
	if title == "" {
		title = pageTitle
	}
	ingredientsRaw, ok := n["recipeIngredient"]
	if !ok {
		ingredientsRaw = n["ingredients"]
	}
	r := recipe.Recipe{
		Title:       title,
		Ingredients: stringList(ingredientsRaw),
		Directions:  normalizeInstructions(n["recipeInstructions"]),
		Tags:        []string{},
		Serves:      recipe.StringPtr(yieldString(n["recipeYield"])),
	}
	for _, key := range []string{"totalTime", "cookTime", "prepTime"} {
		if v := cleanText(stringField(n, key)); v != "" {
			r.CookTime = recipe.StringPtr(v)
			break
		}
	}
	r.ImageURL = recipe.StringPtr(imageField(n["image"]))
	return r
}

func stringField(n map[string]any, key string) string {
	s, _ := n[key].(string)
	return s
}

// cleanText decodes HTML entities and trims, as JSON-LD text often carries markup escapes.
func cleanText(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

func stringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case string:
		if s := cleanText(t); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s = cleanText(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func yieldString(v any) string {
	switch t := v.(type) {
	case string:
		return cleanText(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) > 0 {
			return yieldString(t[0])
		}
	}
	return ""
}

func imageField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return strings.TrimSpace(stringField(t, "url"))
	case []any:
		if len(t) > 0 {
			return imageField(t[0])
		}
	}
	return ""
}
