package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	userAgent      = "Mozilla/5.0 (compatible; FamilyRecipesImporter/1.0; +https://recipes.robrary.com)"
	acceptLanguage = "en-US,en;q=0.9"
	maxRedirects   = 10

	DefaultMaxPageBytes  = 2_000_000
	DefaultMaxImageBytes = 10_000_000
)

// Fetcher retrieves remote pages and images under size, type and host limits.
type Fetcher struct {
	client        *http.Client
	blocked       func(host string) bool
	maxPageBytes  int64
	maxImageBytes int64
}

// NewFetcher builds a Fetcher on a copy of client whose redirect policy re-applies
// the host filter to every hop.
func NewFetcher(client *http.Client, blocked func(string) bool, maxPageBytes, maxImageBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if blocked == nil {
		blocked = Blocked
	}
	if maxPageBytes <= 0 {
		maxPageBytes = DefaultMaxPageBytes
	}
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if !allowedScheme(req.URL) || blocked(req.URL.Hostname()) {
			return fmt.Errorf("redirect to %s: %w", req.URL.Host, ErrHostNotAllowed)
		}
		return nil
	}
	return &Fetcher{
		client:        &c,
		blocked:       blocked,
		maxPageBytes:  maxPageBytes,
		maxImageBytes: maxImageBytes,
	}
}

// FetchPage downloads an HTML page and returns it decoded as UTF-8, with invalid
// sequences replaced.
func (f *Fetcher) FetchPage(ctx context.Context, target string) (string, error) {
	resp, err := f.get(ctx, target, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{URL: target, StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > f.maxPageBytes {
		return "", declaredTooLarge(resp.ContentLength, f.maxPageBytes)
	}
	if mt := mediaType(resp.Header.Get("Content-Type")); mt != "text/html" && mt != "application/xhtml+xml" {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedContentType, mt)
	}
	body, err := readLimited(resp.Body, f.maxPageBytes)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(body), "�"), nil
}

// Image is a downloaded image and its declared content type.
type Image struct {
	Data        []byte
	ContentType string
}

// FetchImage downloads an image. Callers treat every error as "no image".
func (f *Fetcher) FetchImage(ctx context.Context, target string) (Image, error) {
	resp, err := f.get(ctx, target, "image/*")
	if err != nil {
		return Image{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Image{}, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}
	ct := mediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(ct, "image/") {
		return Image{}, fmt.Errorf("%w: %q", ErrUnexpectedContentType, ct)
	}
	if resp.ContentLength > f.maxImageBytes {
		return Image{}, declaredTooLarge(resp.ContentLength, f.maxImageBytes)
	}
	data, err := readLimited(resp.Body, f.maxImageBytes)
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, ContentType: ct}, nil
}

func (f *Fetcher) get(ctx context.Context, target, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Accept", accept)
	return f.client.Do(req)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, tooLarge(limit)
	}
	return body, nil
}

// tooLarge reports a body cut off at limit; its real size is unknown.
func tooLarge(limit int64) error {
	return fmt.Errorf("%w: exceeds the %s limit", ErrFetchTooLarge, humanize.Bytes(uint64(limit)))
}

func declaredTooLarge(declared, limit int64) error {
	return fmt.Errorf("%w: declared length %s exceeds the %s limit", ErrFetchTooLarge,
		humanize.Bytes(uint64(declared)), humanize.Bytes(uint64(limit)))
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		mt, _, _ = strings.Cut(header, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func allowedScheme(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

// isHostError reports whether err came from the redirect host check.
func isHostError(err error) bool {
	return errors.Is(err, ErrHostNotAllowed)
}
