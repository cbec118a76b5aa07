// Package recipe holds the canonical recipe shape shared by storage, the HTTP API
// and the import pipeline, together with the validator, ingredient scaling and the
// browse state used to search, filter and sort a cookbook.
package recipe

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNotFound is returned by record stores when no recipe has the requested id.
var ErrNotFound = errors.New("recipe not found")

// Field limits, in characters.
const (
	MaxTitleLen      = 200
	MaxServesLen     = 100
	MaxCookTimeLen   = 100
	MaxIngredientLen = 500
	MaxDirectionLen  = 2000
	MaxTagLen        = 50
	MaxImageURLLen   = 500
)

// Recipe is the canonical recipe shape. Optional text fields are nil when absent.
type Recipe struct {
	ID          int64    `json:"id,omitempty"`
	Title       string   `json:"title"`
	Serves      *string  `json:"serves"`
	CookTime    *string  `json:"cook_time"`
	Ingredients []string `json:"ingredients"`
	Directions  []string `json:"directions"`
	Tags        []string `json:"tags"`
	ImageURL    *string  `json:"image_url"`
}

// Fields returns the recipe as the loosely typed field map accepted by Validate.
func (r Recipe) Fields() map[string]any {
	fields := map[string]any{
		"title":       r.Title,
		"ingredients": r.Ingredients,
		"directions":  r.Directions,
		"tags":        r.Tags,
	}
	if r.Serves != nil {
		fields["serves"] = *r.Serves
	}
	if r.CookTime != nil {
		fields["cook_time"] = *r.CookTime
	}
	if r.ImageURL != nil {
		fields["image_url"] = *r.ImageURL
	}
	return fields
}

// Normalize trims the title, turns empty optional strings into nil and makes sure
// every list is non-nil. It is applied to every recipe before it is persisted.
func (r Recipe) Normalize() Recipe {
	r.Title = strings.TrimSpace(r.Title)
	r.Serves = nonEmpty(r.Serves)
	r.CookTime = nonEmpty(r.CookTime)
	r.ImageURL = nonEmpty(r.ImageURL)
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Directions == nil {
		r.Directions = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}

// ImageURLValue returns the image URL or "" when none is set.
func (r Recipe) ImageURLValue() string {
	if r.ImageURL == nil {
		return ""
	}
	return *r.ImageURL
}

// Decode parses a JSON request body, validates it and returns the normalized recipe.
// A non-nil error means the body was not a JSON object; validation problems are
// returned as details with a nil error.
func Decode(body []byte) (Recipe, []string, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return Recipe{}, nil, err
	}
	if details := Validate(fields); len(details) > 0 {
		return Recipe{}, details, nil
	}
	var r Recipe
	if err := json.Unmarshal(body, &r); err != nil {
		return Recipe{}, nil, err
	}
	return r.Normalize(), nil, nil
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

// EncodeList serializes a list column. A nil list is stored as "[]".
func EncodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeList parses a stored list column. Empty input decodes to an empty list.
func DecodeList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}, err
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

// DecodeTags parses a stored tags column. Malformed data degrades to a comma split,
// and the second return value reports whether that fallback was used.
func DecodeTags(raw string) ([]string, bool) {
	tags, err := DecodeList(raw)
	if err == nil {
		return tags, false
	}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out, true
}
