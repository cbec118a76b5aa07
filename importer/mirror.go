package importer

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImagePathPrefix is the path under which stored images are served.
const ImagePathPrefix = "/api/images/"

// ImageStore persists mirrored image bytes.
type ImageStore interface {
	PutImage(ctx context.Context, key string, data []byte, contentType string) error
}

var extensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/jpg":     "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// ExtensionFor maps an image content type to a file extension, "bin" when unknown.
func ExtensionFor(contentType string) string {
	if ext, ok := extensions[mediaType(contentType)]; ok {
		return ext
	}
	return "bin"
}

// ImageKey builds a blob key "<prefix><millis>-<random8>.<ext>".
func ImageKey(prefix string, now time.Time, ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return prefix + strconv.FormatInt(now.UnixMilli(), 10) + "-" + random + "." + ext
}

// mirrorImage copies a remote image into the store and returns its local URL.
// It returns nil on any failure.
func (im *Importer) mirrorImage(ctx context.Context, raw, pageURL, origin string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" || im.store == nil {
		return nil
	}
	log := im.log.With("image", raw)
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	ref, err := url.Parse(raw)
	if err != nil {
		log.Warn("image mirror skipped", "err", err)
		return nil
	}
	target := base.ResolveReference(ref)
	if !allowedScheme(target) || im.blocked(target.Hostname()) {
		log.Warn("image mirror skipped", "reason", "target not allowed")
		return nil
	}
	img, err := im.fetcher.FetchImage(ctx, target.String())
	if err != nil {
		log.Warn("image mirror failed", "err", err)
		return nil
	}
	key := ImageKey("imported/", im.now(), ExtensionFor(img.ContentType))
	if err := im.store.PutImage(ctx, key, img.Data, img.ContentType); err != nil {
		log.Warn("image mirror store failed", "key", key, "err", err)
		return nil
	}
	local := strings.TrimSuffix(origin, "/") + ImagePathPrefix + key
	log.Debug("image mirrored", slog.String("key", key), slog.Int("bytes", len(img.Data)))
	return &local
}
