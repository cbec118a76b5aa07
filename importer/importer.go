// Package importer turns a third-party recipe page into a canonical recipe.
//
// A page is fetched under host, size and content-type limits, then read for
// schema.org JSON-LD. Pages without usable markup fall back to a generative
// text extraction pass when one is configured. The recipe image is mirrored
// into local storage on a best-effort basis and the result is validated before
// it is returned. Nothing is persisted to the record store.
package importer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/singleflight"

	"github.com/robrary/cookbook/recipe"
)

// DefaultTimeout bounds one import end to end.
const DefaultTimeout = 30 * time.Second

// Source names the extraction strategy that produced a recipe.
type Source string

const (
	SourceJSONLD Source = "jsonld"
	SourceLLM    Source = "llm"
)

// Result is a successful, unsaved import.
type Result struct {
	Recipe recipe.Recipe `json:"recipe"`
	Source Source        `json:"source"`
}

// Importer runs the import pipeline. It is safe for concurrent use; concurrent
// imports of the same URL for the same origin share one pipeline run.
type Importer struct {
	fetcher *Fetcher
	llm     Completer
	store   ImageStore
	log     *slog.Logger
	blocked func(string) bool
	timeout time.Duration
	now     func() time.Time
	group   singleflight.Group

	httpClient    *http.Client
	maxPageBytes  int64
	maxImageBytes int64
}

// Option configures an Importer.
type Option func(*Importer)

// WithHTTPClient sets the client used for page and image fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(im *Importer) { im.httpClient = c }
}

// WithHostFilter replaces the host safety filter.
func WithHostFilter(blocked func(host string) bool) Option {
	return func(im *Importer) { im.blocked = blocked }
}

// WithLogger sets the logger for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) { im.log = l }
}

// WithTimeout bounds each pipeline run. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(im *Importer) {
		if d > 0 {
			im.timeout = d
		}
	}
}

// WithLimits overrides the page and image byte ceilings.
func WithLimits(maxPageBytes, maxImageBytes int64) Option {
	return func(im *Importer) {
		im.maxPageBytes = maxPageBytes
		im.maxImageBytes = maxImageBytes
	}
}

// WithClock overrides the time source used for image keys.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// New builds an Importer. c may be nil when no generative backend is available
// and store may be nil to disable image mirroring.
func New(c Completer, store ImageStore, opts ...Option) *Importer {
	im := &Importer{
		llm:     c,
		store:   store,
		log:     slog.Default(),
		blocked: Blocked,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	im.fetcher = NewFetcher(im.httpClient, im.blocked, im.maxPageBytes, im.maxImageBytes)
	return im
}

// Import runs the pipeline for rawURL. origin roots the URL of a mirrored image,
// for example "https://recipes.example.com". Every failure is an *Error.
func (im *Importer) Import(ctx context.Context, rawURL, origin string) (Result, error) {
	target, err := im.checkTarget(rawURL)
	if err != nil {
		return Result{}, err
	}
	key := origin + "\x00" + target.String()
	ch := im.group.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), im.timeout)
		defer cancel()
		return im.run(runCtx, target, origin)
	})
	select {
	case <-ctx.Done():
		return Result{}, newError(KindUpstream, "Import cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	}
}

func (im *Importer) checkTarget(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, newError(KindBadRequest, "Missing url", nil)
	}
	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() {
		return nil, newError(KindBadRequest, "Invalid url", err)
	}
	if !allowedScheme(target) {
		return nil, newError(KindBadRequest, "Unsupported url scheme", nil)
	}
	if target.Host == "" {
		return nil, newError(KindBadRequest, "Invalid url", nil)
	}
	if im.blocked(target.Hostname()) {
		return nil, newError(KindBadRequest, "Host not allowed", ErrHostNotAllowed)
	}
	return target, nil
}

func (im *Importer) run(ctx context.Context, target *url.URL, origin string) (Result, error) {
	pageURL := target.String()
	page, err := im.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		if isHostError(err) {
			return Result{}, newError(KindBadRequest, "Host not allowed", err)
		}
		return Result{}, newError(KindUpstream, "Failed to fetch recipe page", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Result{}, newError(KindUpstream, "Failed to parse recipe page", err)
	}

	r, ok := ExtractStructured(doc)
	source := SourceJSONLD
	if !ok {
		source = SourceLLM
		if r, err = im.fallback(ctx, doc, pageURL); err != nil {
			return Result{}, err
		}
	}
	r = r.Normalize()

	if r.ImageURL != nil {
		r.ImageURL = im.mirrorImage(ctx, *r.ImageURL, pageURL, origin)
	}

	if details := recipe.Validate(r.Fields()); len(details) > 0 {
		return Result{}, &Error{
			Kind:    KindUnprocessable,
			Message: "Validation failed",
			Details: details,
			Source:  source,
		}
	}
	im.log.Info("recipe imported", "url", pageURL, "source", source, "title", r.Title)
	return Result{Recipe: r, Source: source}, nil
}

func (im *Importer) fallback(ctx context.Context, doc *goquery.Document, pageURL string) (recipe.Recipe, error) {
	if im.llm == nil || !im.llm.Configured() {
		return recipe.Recipe{}, newError(KindUnprocessable,
			"No structured recipe data found and text extraction is not configured", nil)
	}
	text := PageText(doc)
	if text == "" {
		return recipe.Recipe{}, newError(KindUnprocessable, "No recipe found on this page", nil)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	r, err := extractWithLLM(ctx, im.llm, pageURL, title, text)
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, ErrLLMParse):
		return recipe.Recipe{}, &Error{Kind: KindUpstream, Message: "Text extraction returned no usable JSON", Source: SourceLLM, Err: err}
	default:
		return recipe.Recipe{}, &Error{Kind: KindUpstream, Message: "Text extraction failed", Source: SourceLLM, Err: err}
	}
}
