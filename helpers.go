package cookbook

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/robrary/cookbook/importer"
)

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// origin returns the configured public URL, or the scheme and host the request
// arrived on.
func (a *App) origin(c echo.Context) string {
	if a.Config.Server.PublicURL != "" {
		return a.Config.Server.PublicURL
	}
	return c.Scheme() + "://" + c.Request().Host
}

// ImageKeyFromURL returns the blob key of an image served by this system, or ""
// for external URLs.
func ImageKeyFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	key, ok := strings.CutPrefix(u.Path, importer.ImagePathPrefix)
	if !ok || key == "" {
		return ""
	}
	return key
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// splitTags parses a comma-separated tags query parameter.
func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
