package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/robrary/cookbook"
	"github.com/robrary/cookbook/pgstore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     cookbook.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (cookbook.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			path = cookbook.EnvOr("COOKBOOK_CONFIG", "cookbook.toml")
		}
		cfg, err := cookbook.LoadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := cfg.NewLogger(os.Stderr)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// stores is an opened record and blob store pair.
type stores interface {
	cookbook.RecordStore
	cookbook.BlobStore
}

// openStores opens the database selected by database.driver.
func (c *commandContext) openStores(ctx context.Context) (stores, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	switch cfg.Database.Driver {
	case "postgres":
		s, err := pgstore.Open(ctx, cfg.Database.DSN, c.log())
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, nil
	default:
		s, err := cookbook.NewStore(cfg.Database.Path, cookbook.WithStoreLogger(c.log()))
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Database.Path, err)
		}
		return s, nil
	}
}
