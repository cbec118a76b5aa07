package cookbook

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Database.Driver != "sqlite" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Import.RateLimit != 10 || cfg.Images.MaxWidth != 1600 {
		t.Errorf("unexpected limits %+v %+v", cfg.Import, cfg.Images)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookbook.toml")
	contents := `
[server]
name = "Test Kitchen"
public_url = "https://kitchen.example.com/"

[import]
rate_limit = 3

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("DATABASE_PATH", "/tmp/other.db")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Name != "Test Kitchen" {
		t.Errorf("name: %q", cfg.Server.Name)
	}
	if cfg.Server.PublicURL != "https://kitchen.example.com" {
		t.Errorf("public url should lose its trailing slash, got %q", cfg.Server.PublicURL)
	}
	if cfg.Import.RateLimit != 3 || cfg.Import.RateWindowSeconds != 60 {
		t.Errorf("import: %+v", cfg.Import)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.Database.Path != "/tmp/other.db" {
		t.Errorf("env overrides not applied: %+v %+v", cfg.LLM, cfg.Database)
	}
}

func TestLoadConfigDatabaseURLSelectsPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://cook:pw@localhost/recipes")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN == "" {
		t.Errorf("database: %+v", cfg.Database)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "database.dsn"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"negative rate", func(c *Config) { c.Import.RateLimit = -1 }, "import limits"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Format = "json"
	var buf bytes.Buffer
	log, err := cfg.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	log.Info("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("expected json output, got %q", buf.String())
	}

	buf.Reset()
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}
}
