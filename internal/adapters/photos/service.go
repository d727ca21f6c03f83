// Package photos attaches image blobs to recipes.
package photos

import (
	"context"
	"fmt"
	"io"
	"strings"

	"pantrycore/internal/blob"
	"pantrycore/pkg/domain"
)

// RecipeFinder is the read surface the service needs from the recipe store.
type RecipeFinder interface {
	GetRecipe(id int64) (domain.Recipe, bool)
}

// Service stores recipe photos in a blob store, keyed
// recipes/<id>/<name>.
type Service struct {
	recipes RecipeFinder
	blobs   blob.Store
}

// NewService builds a photo service over the given recipe store and blob
// backend.
func NewService(recipes RecipeFinder, blobs blob.Store) *Service {
	return &Service{recipes: recipes, blobs: blobs}
}

func photoKey(recipeID int64, name string) string {
	return fmt.Sprintf("recipes/%d/%s", recipeID, name)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("photo name required")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid photo name %q", name)
	}
	return nil
}

// Attach stores a new photo under the recipe. The recipe must exist and the
// name must be unused.
func (s *Service) Attach(ctx context.Context, recipeID int64, name string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	if err := validateName(name); err != nil {
		return blob.Info{}, err
	}
	if _, ok := s.recipes.GetRecipe(recipeID); !ok {
		return blob.Info{}, domain.NotFoundError{Entity: domain.EntityRecipe, ID: recipeID}
	}
	return s.blobs.Put(ctx, photoKey(recipeID, name), r, opts)
}

// List returns the photos attached to the recipe, ordered by name.
func (s *Service) List(ctx context.Context, recipeID int64) ([]blob.Info, error) {
	return s.blobs.List(ctx, fmt.Sprintf("recipes/%d/", recipeID))
}

// Open returns the photo metadata and content.
func (s *Service) Open(ctx context.Context, recipeID int64, name string) (blob.Info, io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return blob.Info{}, nil, err
	}
	return s.blobs.Get(ctx, photoKey(recipeID, name))
}

// Remove deletes the photo, reporting whether it existed.
func (s *Service) Remove(ctx context.Context, recipeID int64, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	return s.blobs.Delete(ctx, photoKey(recipeID, name))
}

// PresignURL returns a time-limited GET URL for the photo when the backend
// supports it.
func (s *Service) PresignURL(ctx context.Context, recipeID int64, name string, opts blob.SignedURLOptions) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return s.blobs.PresignURL(ctx, photoKey(recipeID, name), opts)
}
