// Package pgstore keeps recipes and image blobs in PostgreSQL. It satisfies
// cookbook.RecordStore and cookbook.BlobStore and is selected with
// database.driver = "postgres".
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/robrary/cookbook"
	"github.com/robrary/cookbook/recipe"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    serves TEXT,
    cook_time TEXT,
    ingredients TEXT NOT NULL,
    directions TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    image_url TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS images (
    key TEXT PRIMARY KEY,
    content_type TEXT NOT NULL,
    data BYTEA NOT NULL,
    size INTEGER NOT NULL,
    etag TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store is a pgxpool-backed record and blob store.
type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// Open connects to dsn, checks the connection and creates missing tables.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: migrate: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{pool: pool, log: log}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const recipeColumns = `id, title, serves, cook_time, ingredients, directions, tags, image_url`

func (s *Store) scanRecipe(row pgx.Row) (recipe.Recipe, error) {
	var (
		r                               recipe.Recipe
		ingredients, directions, tagRaw string
	)
	if err := row.Scan(&r.ID, &r.Title, &r.Serves, &r.CookTime, &ingredients, &directions, &tagRaw, &r.ImageURL); err != nil {
		return recipe.Recipe{}, err
	}
	var err error
	if r.Ingredients, err = recipe.DecodeList(ingredients); err != nil {
		s.log.Warn("malformed ingredients column, using empty list", "recipe_id", r.ID, "err", err)
	}
	if r.Directions, err = recipe.DecodeList(directions); err != nil {
		s.log.Warn("malformed directions column, using empty list", "recipe_id", r.ID, "err", err)
	}
	tags, fallback := recipe.DecodeTags(tagRaw)
	if fallback {
		s.log.Warn("malformed tags column, split on commas", "recipe_id", r.ID)
	}
	r.Tags = tags
	return r.Normalize(), nil
}

// ListRecipes returns every recipe ordered by title.
func (s *Store) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY title ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []recipe.Recipe{}
	for rows.Next() {
		r, err := s.scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// GetRecipe returns a single recipe by id.
func (s *Store) GetRecipe(ctx context.Context, id int64) (recipe.Recipe, error) {
	r, err := s.scanRecipe(s.pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	return r, err
}

// CreateRecipe inserts a recipe and returns its id.
func (s *Store) CreateRecipe(ctx context.Context, r recipe.Recipe) (int64, error) {
	r = r.Normalize()
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO recipes (title, serves, cook_time, ingredients, directions, tags, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		r.Title, r.Serves, r.CookTime,
		recipe.EncodeList(r.Ingredients), recipe.EncodeList(r.Directions), recipe.EncodeList(r.Tags),
		r.ImageURL,
	).Scan(&id)
	return id, err
}

// UpdateRecipe replaces every field of an existing recipe.
func (s *Store) UpdateRecipe(ctx context.Context, id int64, r recipe.Recipe) error {
	r = r.Normalize()
	tag, err := s.pool.Exec(ctx, `
		UPDATE recipes SET title = $1, serves = $2, cook_time = $3, ingredients = $4,
		       directions = $5, tags = $6, image_url = $7, updated_at = now()
		WHERE id = $8`,
		r.Title, r.Serves, r.CookTime,
		recipe.EncodeList(r.Ingredients), recipe.EncodeList(r.Directions), recipe.EncodeList(r.Tags),
		r.ImageURL, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return recipe.ErrNotFound
	}
	return nil
}

// DeleteRecipe removes a recipe by id.
func (s *Store) DeleteRecipe(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return recipe.ErrNotFound
	}
	return nil
}

// GetImage returns a stored image by key.
func (s *Store) GetImage(ctx context.Context, key string) (cookbook.Image, error) {
	img := cookbook.Image{Key: key}
	err := s.pool.QueryRow(ctx, `SELECT content_type, data, etag, created_at FROM images WHERE key = $1`, key).
		Scan(&img.ContentType, &img.Data, &img.ETag, &img.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return cookbook.Image{}, cookbook.ErrImageNotFound
	}
	if err != nil {
		return cookbook.Image{}, err
	}
	return img, nil
}

// PutImage stores image bytes under key, replacing any existing blob.
func (s *Store) PutImage(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO images (key, content_type, data, size, etag)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data,
		       size = EXCLUDED.size, etag = EXCLUDED.etag, created_at = now()`,
		key, contentType, data, len(data), cookbook.ETag(data))
	return err
}

// DeleteImage removes a blob. Deleting a missing key is not an error.
func (s *Store) DeleteImage(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM images WHERE key = $1`, key)
	return err
}

var (
	_ cookbook.RecordStore = (*Store)(nil)
	_ cookbook.BlobStore   = (*Store)(nil)
)
