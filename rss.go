package cookbook

import (
	"encoding/xml"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/robrary/cookbook/recipe"
	"github.com/robrary/cookbook/views"
)

const feedSize = 20

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Categories  []string `xml:"category"`
	GUID        string   `xml:"guid"`
}

// renderRSS writes the newest recipes as an RSS 2.0 feed.
func (a *App) renderRSS(c echo.Context, recipes []recipe.Recipe) error {
	base := a.origin(c)
	newest := recipe.Sort(recipes, recipe.SortNewest, nil)
	if len(newest) > feedSize {
		newest = newest[:feedSize]
	}
	items := make([]rssItem, 0, len(newest))
	for _, r := range newest {
		link := BuildURL(base, "recipes", strconv.FormatInt(r.ID, 10))
		items = append(items, rssItem{
			Title:       r.Title,
			Link:        link,
			Description: views.Describe(r),
			Categories:  r.Tags,
			GUID:        link,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Server.Name,
			Link:        BuildURL(base),
			Description: "Newest recipes from " + a.Config.Server.Name,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
