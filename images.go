package cookbook

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/robrary/cookbook/importer"
)

const jpegQuality = 85

// processUpload downscales raster images wider than maxWidth and re-encodes
// them as JPEG. Images that are narrow enough, or that cannot be decoded (SVG,
// animated or unknown formats), are stored unchanged.
func processUpload(data []byte, contentType string, maxWidth int) ([]byte, string) {
	if maxWidth <= 0 || contentType == "image/svg+xml" || contentType == "image/gif" {
		return data, contentType
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= maxWidth {
		return data, contentType
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, contentType
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newH := max(1, h*maxWidth/w)
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return data, contentType
	}
	return buf.Bytes(), "image/jpeg"
}

func (a *App) handleImageUpload(c echo.Context) error {
	contentType := strings.ToLower(strings.TrimSpace(c.Request().Header.Get(echo.HeaderContentType)))
	if !strings.HasPrefix(contentType, "image/") {
		return jsonError(c, http.StatusBadRequest, "Invalid content type. Only images allowed.")
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	limit := a.Config.Images.MaxUploadBytes
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, limit+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > limit {
		return jsonError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Image too large (max %s)", humanize.Bytes(uint64(limit))))
	}
	if len(data) == 0 {
		return jsonError(c, http.StatusBadRequest, "Empty image body")
	}

	originalSize := len(data)
	data, contentType = processUpload(data, contentType, a.Config.Images.MaxWidth)

	key := importer.ImageKey("", time.Now(), importer.ExtensionFor(contentType))
	if err := a.Blobs.PutImage(c.Request().Context(), key, data, contentType); err != nil {
		return err
	}
	a.Log.Info("image uploaded", "key", key,
		"size", humanize.Bytes(uint64(len(data))), "original", humanize.Bytes(uint64(originalSize)))

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"url":     a.origin(c) + importer.ImagePathPrefix + key,
		"key":     key,
	})
}

func (a *App) handleImage(c echo.Context) error {
	key := c.Param("*")
	if key == "" {
		return c.String(http.StatusNotFound, "Image not found")
	}
	img, err := a.Blobs.GetImage(c.Request().Context(), key)
	if errors.Is(err, ErrImageNotFound) {
		return c.String(http.StatusNotFound, "Image not found")
	}
	if err != nil {
		return err
	}

	h := c.Response().Header()
	h.Set("ETag", img.ETag)
	h.Set("Cache-Control", "public, max-age=31536000")
	h.Set(echo.HeaderAccessControlAllowOrigin, "*")
	if match := c.Request().Header.Get("If-None-Match"); match != "" && match == img.ETag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}
