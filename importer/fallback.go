package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/robrary/cookbook/llm"
	"github.com/robrary/cookbook/recipe"
)

// MaxPromptChars bounds the page text sent to the generative backend.
const MaxPromptChars = 15000

const systemPrompt = "You extract recipes from web page text. " +
	"Return only a JSON object with the keys title, serves, cook_time, ingredients, directions, image_url. " +
	"ingredients and directions are arrays of strings. Use null for unknown values. No prose, no code fences."

// Completer is the generative-text backend used by the fallback extractor.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, messages ...llm.Message) (string, error)
}

// PageText returns the visible text of a page with whitespace collapsed.
func PageText(doc *goquery.Document) string {
	body := doc.Selection.Clone()
	body.Find("script, style, noscript, template").Remove()
	text := strings.ReplaceAll(body.Text(), "\u00a0", " ")
	return strings.Join(strings.Fields(text), " ")
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

type promptPayload struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// extractWithLLM asks the backend to extract a recipe from the page text.
func extractWithLLM(ctx context.Context, c Completer, pageURL, title, text string) (recipe.Recipe, error) {
	payload, err := json.Marshal(promptPayload{
		URL:   pageURL,
		Title: title,
		Text:  truncateRunes(text, MaxPromptChars),
	})
	if err != nil {
		return recipe.Recipe{}, err
	}
	resp, err := c.Complete(ctx,
		llm.Message{Role: "system", Content: systemPrompt},
		llm.Message{Role: "user", Content: string(payload)},
	)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("%w: %w", ErrLLMRequest, err)
	}
	obj, err := ParseResponse(resp)
	if err != nil {
		return recipe.Recipe{}, err
	}
	return NormalizeLLM(obj), nil
}

// ParseResponse decodes the JSON object in a completion, tolerating prose around it.
func ParseResponse(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, nil
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrLLMParse
	}
	obj = nil
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil || obj == nil {
		return nil, ErrLLMParse
	}
	return obj, nil
}

// NormalizeLLM coerces a decoded completion into the canonical shape. Fields of
// the wrong type degrade to their empty value; validation decides what is usable.
func NormalizeLLM(obj map[string]any) recipe.Recipe {
	str := func(key string) *string {
		s, ok := obj[key].(string)
		if !ok {
			return nil
		}
		return &s
	}
	list := func(key string) []string {
		out := []string{}
		items, ok := obj[key].([]any)
		if !ok {
			return out
		}
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	title, _ := obj["title"].(string)
	return recipe.Recipe{
		Title:       title,
		Serves:      str("serves"),
		CookTime:    str("cook_time"),
		Ingredients: list("ingredients"),
		Directions:  list("directions"),
		Tags:        []string{},
		ImageURL:    str("image_url"),
	}
}
