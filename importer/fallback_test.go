package importer

import (
	"errors"
	"strings"
	"testing"
)

func TestParseResponse(t *testing.T) {
	obj, err := ParseResponse(`Here you go: {"title":"X","ingredients":["a"],"directions":["b"]} thanks`)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if obj["title"] != "X" {
		t.Errorf("title = %v", obj["title"])
	}

	obj, err = ParseResponse("  {\"title\":\"Direct\"}\n")
	if err != nil || obj["title"] != "Direct" {
		t.Errorf("direct decode: %v %v", obj, err)
	}

	for _, bad := range []string{"", "no json here", "} {", `{"title":`} {
		if _, err := ParseResponse(bad); !errors.Is(err, ErrLLMParse) {
			t.Errorf("ParseResponse(%q) err = %v, want ErrLLMParse", bad, err)
		}
	}
}

func TestNormalizeLLM(t *testing.T) {
	r := NormalizeLLM(map[string]any{
		"title":       42.0,
		"serves":      4.0,
		"cook_time":   "20 min",
		"ingredients": []any{"a", 1.0, "b"},
		"directions":  "not a list",
		"tags":        []any{"ignored"},
		"image_url":   false,
	})
	if r.Title != "" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Serves != nil {
		t.Errorf("serves = %v", *r.Serves)
	}
	if r.CookTime == nil || *r.CookTime != "20 min" {
		t.Errorf("cook_time = %v", r.CookTime)
	}
	if len(r.Ingredients) != 2 || r.Ingredients[1] != "b" {
		t.Errorf("ingredients = %#v", r.Ingredients)
	}
	if r.Directions == nil || len(r.Directions) != 0 {
		t.Errorf("directions = %#v", r.Directions)
	}
	if len(r.Tags) != 0 || r.ImageURL != nil {
		t.Errorf("tags/image = %#v %v", r.Tags, r.ImageURL)
	}
}

func TestPageText(t *testing.T) {
	doc := parseDoc(t, `<html><head><title>T</title><style>.x{}</style></head>
		<body><script>var a = 1;</script><h1>Pancakes</h1>
		<p>Mix&nbsp;flour   and
		milk.</p><noscript>enable js</noscript></body></html>`)
	got := PageText(doc)
	if strings.Contains(got, "var a") || strings.Contains(got, ".x{}") || strings.Contains(got, "enable js") {
		t.Errorf("script/style/noscript leaked: %q", got)
	}
	if !strings.Contains(got, "Pancakes Mix flour and milk.") {
		t.Errorf("text = %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
}
