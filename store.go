package cookbook

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/robrary/cookbook/recipe"
)

// Store wraps a SQLite database holding the recipe table and image blobs.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for warnings about malformed rows.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; writers wait on busy instead of failing.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS recipes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    serves TEXT,
    cook_time TEXT,
    ingredients TEXT NOT NULL,
    directions TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    image_url TEXT,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
    updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);
CREATE TABLE IF NOT EXISTS images (
    key TEXT PRIMARY KEY,
    content_type TEXT NOT NULL,
    data BLOB NOT NULL,
    size INTEGER NOT NULL,
    etag TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`)
	return err
}

const recipeColumns = `id, title, serves, cook_time, ingredients, directions, tags, image_url`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRecipe(row rowScanner) (recipe.Recipe, error) {
	var (
		r                               recipe.Recipe
		serves, cookTime, imageURL      sql.NullString
		ingredients, directions, tagRaw string
	)
	if err := row.Scan(&r.ID, &r.Title, &serves, &cookTime, &ingredients, &directions, &tagRaw, &imageURL); err != nil {
		return recipe.Recipe{}, err
	}
	r.Serves = nullString(serves)
	r.CookTime = nullString(cookTime)
	r.ImageURL = nullString(imageURL)

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
	return r, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	v := ns.String
	return &v
}

func nullable(p *string) any {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}

// ListRecipes returns every recipe ordered by title.
func (s *Store) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY title ASC, id ASC`)
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
	r, err := s.scanRecipe(s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	return r, err
}

// CreateRecipe inserts a recipe and returns its id.
func (s *Store) CreateRecipe(ctx context.Context, r recipe.Recipe) (int64, error) {
	r = r.Normalize()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes (title, serves, cook_time, ingredients, directions, tags, image_url) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Title, nullable(r.Serves), nullable(r.CookTime),
		recipe.EncodeList(r.Ingredients), recipe.EncodeList(r.Directions), recipe.EncodeList(r.Tags),
		nullable(r.ImageURL))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateRecipe replaces every field of an existing recipe.
func (s *Store) UpdateRecipe(ctx context.Context, id int64, r recipe.Recipe) error {
	r = r.Normalize()
	res, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET title = ?, serves = ?, cook_time = ?, ingredients = ?, directions = ?, tags = ?, image_url = ?,
		 updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ?`,
		r.Title, nullable(r.Serves), nullable(r.CookTime),
		recipe.EncodeList(r.Ingredients), recipe.EncodeList(r.Directions), recipe.EncodeList(r.Tags),
		nullable(r.ImageURL), id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// DeleteRecipe removes a recipe by id.
func (s *Store) DeleteRecipe(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return recipe.ErrNotFound
	}
	return nil
}

// GetImage returns a stored image by key.
func (s *Store) GetImage(ctx context.Context, key string) (Image, error) {
	img := Image{Key: key}
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT content_type, data, etag, created_at FROM images WHERE key = ?`, key).
		Scan(&img.ContentType, &img.Data, &img.ETag, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrImageNotFound
	}
	if err != nil {
		return Image{}, err
	}
	img.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return img, nil
}

// PutImage stores image bytes under key, replacing any existing blob.
func (s *Store) PutImage(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO images (key, content_type, data, size, etag, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		key, contentType, data, len(data), ETag(data), time.Now().UTC().Format(time.RFC3339))
	return err
}

// DeleteImage removes a blob. Deleting a missing key is not an error.
func (s *Store) DeleteImage(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE key = ?`, key)
	return err
}

// ETag returns a strong entity tag for data.
func ETag(data []byte) string {
	sum := sha256.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
