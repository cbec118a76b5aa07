// Package cookbook is a personal recipe server built with Go, Echo, and templ.
// It serves a JSON API for recipe CRUD, image upload and hosting, recipe import
// from third-party pages, per-browser preferences, and public share pages with
// a sitemap and feed.
//
// Storage is pluggable through RecordStore and BlobStore; Store provides both
// on SQLite.
package cookbook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/robrary/cookbook/importer"
	"github.com/robrary/cookbook/llm"
	"github.com/robrary/cookbook/views"
)

// App is the central cookbook application. It wires together the stores,
// cache, importer, handlers and middleware.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Records  RecordStore
	Blobs    BlobStore
	Cache    *RecipeCache
	Importer *importer.Importer
	Log      *slog.Logger

	completer    importer.Completer
	importerOpts []importer.Option
	limiter      *ImportLimiter
	customRoutes []func(*App)
	ready        bool
}

// Option configures additional App behavior.
type Option func(*App)

// WithStores sets the record and blob stores. Without it Setup opens a SQLite
// Store at Database.Path.
func WithStores(records RecordStore, blobs BlobStore) Option {
	return func(a *App) {
		a.Records = records
		a.Blobs = blobs
	}
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.Log = l }
}

// WithCompleter replaces the generative-text backend used by imports.
func WithCompleter(c importer.Completer) Option {
	return func(a *App) { a.completer = c }
}

// WithImporterOptions passes options through to the importer.
func WithImporterOptions(opts ...importer.Option) Option {
	return func(a *App) { a.importerOpts = append(a.importerOpts, opts...) }
}

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) { a.customRoutes = append(a.customRoutes, fn) }
}

// New creates a new App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Log:    slog.Default(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup opens storage if none was supplied and registers middleware and routes.
// It is called by Start and may be called directly to serve requests in tests.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}
	if a.Config.Server.SessionSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("cookbook: generate session secret: %w", err)
		}
		a.Config.Server.SessionSecret = hex.EncodeToString(secret)
		a.Log.Warn("no session secret configured, preferences will reset on restart")
	}

	if a.Records == nil {
		store, err := NewStore(a.Config.Database.Path, WithStoreLogger(a.Log))
		if err != nil {
			return fmt.Errorf("cookbook: init store: %w", err)
		}
		a.Records = store
		if a.Blobs == nil {
			a.Blobs = store
		}
	}
	if a.Blobs == nil {
		return errors.New("cookbook: a blob store is required")
	}

	a.Cache = NewRecipeCache(a.Records, time.Duration(a.Config.Cache.TTLSeconds)*time.Second)
	a.limiter = NewImportLimiter(a.Config.Import.RateLimit, time.Duration(a.Config.Import.RateWindowSeconds)*time.Second)

	if a.completer == nil {
		a.completer = llm.NewClient(a.Config.LLMClientConfig())
	}
	opts := []importer.Option{
		importer.WithLogger(a.Log),
		importer.WithTimeout(time.Duration(a.Config.Import.TimeoutSeconds) * time.Second),
		importer.WithLimits(a.Config.Import.MaxPageBytes, a.Config.Import.MaxImageBytes),
	}
	a.Importer = importer.New(a.completer, a.Blobs, append(opts, a.importerOpts...)...)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Log.Info("listening", "addr", a.Config.Server.Addr, "llm_configured", a.completer.Configured())
	if err := a.Echo.Start(a.Config.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	api := e.Group("/api")
	api.GET("/recipes", a.handleListRecipes)
	api.GET("/tags", a.handleListTags)
	api.POST("/recipes", a.handleCreateRecipe)
	api.POST("/recipes/import", a.handleImport)
	api.GET("/recipes/:id", a.handleGetRecipe)
	api.PUT("/recipes/:id", a.handleUpdateRecipe)
	api.DELETE("/recipes/:id", a.handleDeleteRecipe)
	api.PUT("/upload-image", a.handleImageUpload)
	api.GET("/images/*", a.handleImage)
	api.GET("/preferences", a.handleGetPreferences)
	api.PUT("/preferences", a.handlePutPreferences)
	api.POST("/preferences/favorites/:id", a.handleToggleFavorite)

	e.GET("/recipes/:id", a.handleSharePage)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
}

func (a *App) site(c echo.Context) views.SiteConfig {
	return views.SiteConfig{Name: a.Config.Server.Name, URL: a.origin(c)}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Records != nil {
		return a.Records.Close()
	}
	return nil
}
