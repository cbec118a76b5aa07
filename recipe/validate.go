package recipe

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate checks a candidate recipe and returns every violation found, in field
// order. An empty result means the recipe may be persisted. Within a list field
// only the first bad entry is reported.
func Validate(fields map[string]any) []string {
	var errs []string

	title, ok := fields["title"].(string)
	switch {
	case !ok || strings.TrimSpace(title) == "":
		errs = append(errs, "Title is required")
	case length(title) > MaxTitleLen:
		errs = append(errs, fmt.Sprintf("Title must be %d characters or less", MaxTitleLen))
	}

	errs = appendOptionalText(errs, fields, "serves", "Serves", MaxServesLen)
	errs = appendOptionalText(errs, fields, "cook_time", "Cook time", MaxCookTimeLen)
	errs = appendList(errs, fields["ingredients"], true, "Ingredients", "ingredient", "Ingredient", MaxIngredientLen)
	errs = appendList(errs, fields["directions"], true, "Directions", "direction", "Direction", MaxDirectionLen)

	if v, present := fields["tags"]; present && v != nil {
		errs = appendList(errs, v, false, "Tags", "tag", "Tag", MaxTagLen)
	}

	if v, present := fields["image_url"]; present && v != nil && v != "" {
		s, ok := v.(string)
		switch {
		case !ok:
			errs = append(errs, "Image URL must be a string")
		case length(s) > MaxImageURLLen:
			errs = append(errs, fmt.Sprintf("Image URL must be %d characters or less", MaxImageURLLen))
		}
	}
	return errs
}

func appendOptionalText(errs []string, fields map[string]any, key, label string, limit int) []string {
	v, present := fields[key]
	if !present || v == nil {
		return errs
	}
	s, ok := v.(string)
	if !ok {
		return append(errs, label+" must be a string")
	}
	if length(s) > limit {
		return append(errs, fmt.Sprintf("%s must be %d characters or less", label, limit))
	}
	return errs
}

func appendList(errs []string, v any, required bool, label, noun, entry string, limit int) []string {
	items, ok := asList(v)
	if !ok {
		return append(errs, label+" must be an array")
	}
	if required && len(items) == 0 {
		errs = append(errs, fmt.Sprintf("At least one %s is required", noun))
	}
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return append(errs, fmt.Sprintf("%s at index %d must be a string", entry, i))
		}
		if length(s) > limit {
			return append(errs, fmt.Sprintf("%s at index %d exceeds %d character limit", entry, i, limit))
		}
	}
	return errs
}

func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
