package cookbook

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/robrary/cookbook/importer"
	"github.com/robrary/cookbook/llm"
)

// Config holds all configuration for a cookbook server.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Images   ImagesConfig   `toml:"images"`
	Import   ImportConfig   `toml:"import"`
	LLM      LLMConfig      `toml:"llm"`
	Log      LogConfig      `toml:"log"`
	Cache    CacheConfig    `toml:"cache"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	PublicURL      string   `toml:"public_url"` // used for share links, feeds and mirrored image URLs
	Name           string   `toml:"name"`
	AllowedOrigins []string `toml:"allowed_origins"`
	SessionSecret  string   `toml:"session_secret"`
	CookieSecure   bool     `toml:"cookie_secure"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "postgres"
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

type ImagesConfig struct {
	MaxWidth       int   `toml:"max_width"`
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

type ImportConfig struct {
	TimeoutSeconds    int   `toml:"timeout_seconds"`
	MaxPageBytes      int64 `toml:"max_page_bytes"`
	MaxImageBytes     int64 `toml:"max_image_bytes"`
	RateLimit         int   `toml:"rate_limit"`
	RateWindowSeconds int   `toml:"rate_window_seconds"`
}

type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

// DefaultAllowedOrigins are the browser origins permitted by CORS when none are configured.
var DefaultAllowedOrigins = []string{
	"https://recipes.robrary.com",
	"https://family-recipes-backend.robrary.workers.dev",
	"http://localhost:3000",
	"http://localhost:8080",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:8080",
}

// DefaultConfig returns the configuration used when no file or environment overrides exist.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			Name:           "Family Recipes",
			AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/recipes.db",
		},
		Images: ImagesConfig{
			MaxWidth:       1600,
			MaxUploadBytes: 10 << 20,
		},
		Import: ImportConfig{
			TimeoutSeconds:    int(importer.DefaultTimeout / time.Second),
			MaxPageBytes:      importer.DefaultMaxPageBytes,
			MaxImageBytes:     importer.DefaultMaxImageBytes,
			RateLimit:         10,
			RateWindowSeconds: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			TTLSeconds: 300,
		},
	}
}

// LoadConfig reads a TOML file over the defaults and then applies environment
// overrides. An empty path, or a path that does not exist, uses defaults only.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		contents, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(contents, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = EnvOr("COOKBOOK_ADDR", c.Server.Addr)
	c.Server.PublicURL = EnvOr("PUBLIC_URL", c.Server.PublicURL)
	c.Server.SessionSecret = EnvOr("SESSION_SECRET", c.Server.SessionSecret)
	if v, err := strconv.ParseBool(os.Getenv("COOKIE_SECURE")); err == nil {
		c.Server.CookieSecure = v
	}
	c.Database.Path = EnvOr("DATABASE_PATH", c.Database.Path)
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
		c.Database.Driver = "postgres"
	}
	c.LLM.BaseURL = EnvOr("LLM_API_URL", c.LLM.BaseURL)
	c.LLM.APIKey = EnvOr("LLM_API_KEY", c.LLM.APIKey)
	c.LLM.Model = EnvOr("LLM_MODEL", c.LLM.Model)
}

func (c *Config) setDefaults() {
	def := DefaultConfig()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.Name == "" {
		c.Server.Name = def.Server.Name
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = def.Server.AllowedOrigins
	}
	c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Images.MaxWidth == 0 {
		c.Images.MaxWidth = def.Images.MaxWidth
	}
	if c.Images.MaxUploadBytes == 0 {
		c.Images.MaxUploadBytes = def.Images.MaxUploadBytes
	}
	if c.Import.TimeoutSeconds == 0 {
		c.Import.TimeoutSeconds = def.Import.TimeoutSeconds
	}
	if c.Import.MaxPageBytes == 0 {
		c.Import.MaxPageBytes = def.Import.MaxPageBytes
	}
	if c.Import.MaxImageBytes == 0 {
		c.Import.MaxImageBytes = def.Import.MaxImageBytes
	}
	if c.Import.RateLimit == 0 {
		c.Import.RateLimit = def.Import.RateLimit
	}
	if c.Import.RateWindowSeconds == 0 {
		c.Import.RateWindowSeconds = def.Import.RateWindowSeconds
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = def.Cache.TTLSeconds
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("config: database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	if c.Images.MaxWidth < 0 || c.Images.MaxUploadBytes < 0 {
		return errors.New("config: image limits must not be negative")
	}
	if c.Import.TimeoutSeconds < 0 || c.Import.MaxPageBytes < 0 || c.Import.MaxImageBytes < 0 ||
		c.Import.RateLimit < 0 || c.Import.RateWindowSeconds < 0 {
		return errors.New("config: import limits must not be negative")
	}
	if c.Cache.TTLSeconds < 0 {
		return errors.New("config: cache.ttl_seconds must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// LLMClientConfig converts the [llm] section for the llm package.
func (c Config) LLMClientConfig() llm.Config {
	return llm.Config{
		APIKey:         c.LLM.APIKey,
		BaseURL:        c.LLM.BaseURL,
		Model:          c.LLM.Model,
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// NewLogger builds the process logger described by the [log] section.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: unknown log.level %q", s)
	}
	return level, nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
