package cookbook

import (
	"context"
	"errors"
	"time"

	"github.com/robrary/cookbook/recipe"
)

// ErrImageNotFound is returned by blob stores when a key has no stored image.
var ErrImageNotFound = errors.New("image not found")

// RecordStore persists recipes. Implementations return recipe.ErrNotFound for
// unknown ids. Each call is atomic on its own; callers get no cross-call transactions.
type RecordStore interface {
	ListRecipes(ctx context.Context) ([]recipe.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (recipe.Recipe, error)
	CreateRecipe(ctx context.Context, r recipe.Recipe) (int64, error)
	UpdateRecipe(ctx context.Context, id int64, r recipe.Recipe) error
	DeleteRecipe(ctx context.Context, id int64) error
	Close() error
}

// BlobStore keeps image bytes with their content type.
type BlobStore interface {
	GetImage(ctx context.Context, key string) (Image, error)
	PutImage(ctx context.Context, key string, data []byte, contentType string) error
	DeleteImage(ctx context.Context, key string) error
}

// Image is a stored image blob.
type Image struct {
	Key         string
	ContentType string
	Data        []byte
	ETag        string
	CreatedAt   time.Time
}
