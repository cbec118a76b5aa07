package cookbook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/robrary/cookbook/importer"
	"github.com/robrary/cookbook/recipe"
)

type importResponse struct {
	Success bool            `json:"success"`
	Recipe  recipe.Recipe   `json:"recipe"`
	Source  importer.Source `json:"source"`
}

// importStatus maps an import failure kind to its HTTP status.
func importStatus(k importer.Kind) int {
	switch k {
	case importer.KindBadRequest:
		return http.StatusBadRequest
	case importer.KindUnprocessable:
		return http.StatusUnprocessableEntity
	case importer.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) handleImport(c echo.Context) error {
	if !a.limiter.Allow(c.RealIP()) {
		return jsonError(c, http.StatusTooManyRequests, "Too many imports, try again in a minute")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid JSON body")
	}
	rawURL, _ := req["url"].(string)

	res, err := a.Importer.Import(c.Request().Context(), rawURL, a.origin(c))
	if err != nil {
		var ie *importer.Error
		if !errors.As(err, &ie) {
			return err
		}
		code := importStatus(ie.Kind)
		if code >= http.StatusInternalServerError {
			a.Log.Warn("import failed", "url", rawURL, "kind", ie.Kind.String(), "err", err)
		}
		if code == http.StatusInternalServerError {
			return err
		}
		return c.JSON(code, errorBody{
			Error:   ie.Message,
			Details: ie.Details,
			Source:  string(ie.Source),
		})
	}
	return c.JSON(http.StatusOK, importResponse{Success: true, Recipe: res.Recipe, Source: res.Source})
}
