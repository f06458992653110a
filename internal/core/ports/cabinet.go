package ports

import (
	"context"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

// IngredientSet is the combined default+custom payload of the inventory
// endpoints.
type IngredientSet struct {
	Default []domain.Ingredient
	Custom  []domain.Ingredient
}

// CabinetAPI is the typed view of the ingredient endpoints.
//
// Reads return (nil, nil) without touching the network when no well-formed
// session token is stored. Writes return domain.ErrNoSession in that case
// and are not issued.
type CabinetAPI interface {
	AllIngredients(ctx context.Context) (*IngredientSet, error)
	UserIngredients(ctx context.Context) (*IngredientSet, error)
	CustomIngredients(ctx context.Context) ([]domain.Ingredient, error)

	UpdateIngredient(ctx context.Context, ingredient domain.Ingredient) error
	// AddCustomIngredient returns the backend's success message, or a
	// *domain.BackendError carrying its error message.
	AddCustomIngredient(ctx context.Context, name string, typ domain.IngredientType) (string, error)
	DeleteCustomIngredient(ctx context.Context, name string) error
	DeleteUserIngredients(ctx context.Context, names []string) error
}

// RecipeAPI is the typed view of the recipe endpoints. A nil slice with a
// nil error means the call was skipped for lack of a session.
type RecipeAPI interface {
	Recipes(ctx context.Context, feed domain.FeedContext) ([]domain.Recipe, error)
}
