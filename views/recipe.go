package views

import (
	"bytes"
	"context"
	"html"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/robrary/cookbook/recipe"
)

var scaleOptions = []float64{0.5, 1, 2, 3}

// Recipe renders the public share page of a recipe.
func Recipe(p RecipePage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		writeHead(&buf, p.Site, p.Meta)
		buf.WriteString(`<script type="application/ld+json">`)
		buf.WriteString(p.JSONLD)
		buf.WriteString("</script></head><body><main class=\"recipe\">")
		renderRecipe(&buf, p)
		buf.WriteString("</main>")
		writeFooter(&buf, p.Site)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func renderRecipe(buf *bytes.Buffer, p RecipePage) {
	r := p.Recipe
	buf.WriteString("<article><h1>" + esc(r.Title) + "</h1>")

	if r.ImageURL != nil {
		buf.WriteString(`<img class="recipe-image" src="` + esc(*r.ImageURL) + `" alt="` + esc(r.Title) + `">`)
	}

	if r.Serves != nil || r.CookTime != nil {
		buf.WriteString(`<dl class="recipe-meta">`)
		if r.Serves != nil {
			buf.WriteString("<dt>Serves</dt><dd>" + esc(*r.Serves) + "</dd>")
		}
		if r.CookTime != nil {
			buf.WriteString("<dt>Time</dt><dd>" + esc(*r.CookTime) + "</dd>")
		}
		buf.WriteString("</dl>")
	}

	if len(r.Tags) > 0 {
		buf.WriteString(`<ul class="tags">`)
		for _, t := range r.Tags {
			buf.WriteString("<li>" + esc(t) + "</li>")
		}
		buf.WriteString("</ul>")
	}

	buf.WriteString(`<nav class="scale" aria-label="Scale recipe">`)
	for _, m := range scaleOptions {
		label := FormatMultiplier(m) + "×"
		if m == p.Multiplier {
			buf.WriteString(`<span aria-current="true">` + label + "</span>")
			continue
		}
		buf.WriteString(`<a href="?scale=` + FormatMultiplier(m) + `">` + label + "</a>")
	}
	buf.WriteString("</nav>")

	buf.WriteString("<h2>Ingredients</h2>")
	writeEntries(buf, "ul", p.Ingredients, nil)

	buf.WriteString("<h2>Directions</h2>")
	writeEntries(buf, "ol", r.Directions, recipe.StepNumbers(r.Directions))
	buf.WriteString("</article>")
}

// writeEntries writes a list, turning section markers into headings. numbers,
// when set, gives each non-section entry its step number.
func writeEntries(buf *bytes.Buffer, tag string, entries []string, numbers []int) {
	open := false
	for i, e := range entries {
		if recipe.IsSection(e) {
			if open {
				buf.WriteString("</" + tag + ">")
				open = false
			}
			buf.WriteString("<h3>" + esc(recipe.SectionTitle(e)) + "</h3>")
			continue
		}
		if !open {
			buf.WriteString("<" + tag + ">")
			open = true
		}
		if numbers != nil {
			buf.WriteString(`<li value="` + strconv.Itoa(numbers[i]) + `">`)
		} else {
			buf.WriteString("<li>")
		}
		buf.WriteString(esc(e) + "</li>")
	}
	if open {
		buf.WriteString("</" + tag + ">")
	}
}

// NotFound renders the 404 page.
func NotFound(site SiteConfig) templ.Component {
	return message(site, "Not found", "That recipe does not exist or was removed.")
}

// ServerError renders the 500 page.
func ServerError(site SiteConfig) templ.Component {
	return message(site, "Something went wrong", "Please try again in a moment.")
}

func message(site SiteConfig, title, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		writeHead(&buf, site, PageMeta{Title: title})
		buf.WriteString("</head><body><main><h1>" + esc(title) + "</h1><p>" + esc(body) + `</p><p><a href="/">Back to recipes</a></p></main>`)
		writeFooter(&buf, site)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func writeHead(buf *bytes.Buffer, site SiteConfig, meta PageMeta) {
	title := meta.Title
	if site.Name != "" {
		title += " | " + site.Name
	}
	buf.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
	buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	buf.WriteString("<title>" + esc(title) + "</title>")
	if meta.Description != "" {
		buf.WriteString(`<meta name="description" content="` + esc(meta.Description) + `">`)
		buf.WriteString(`<meta property="og:description" content="` + esc(meta.Description) + `">`)
	}
	buf.WriteString(`<meta property="og:title" content="` + esc(meta.Title) + `">`)
	if meta.URL != "" {
		buf.WriteString(`<link rel="canonical" href="` + esc(meta.URL) + `">`)
		buf.WriteString(`<meta property="og:url" content="` + esc(meta.URL) + `">`)
	}
	if meta.Image != "" {
		buf.WriteString(`<meta property="og:image" content="` + esc(meta.Image) + `">`)
	}
}

func writeFooter(buf *bytes.Buffer, site SiteConfig) {
	buf.WriteString("<footer><a href=\"/\">" + esc(site.Name) + "</a></footer></body></html>")
}

func esc(s string) string {
	return html.EscapeString(s)
}
