package domain

import "context"

// Transaction exposes the domain mutations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateRecipe(Recipe) (Recipe, error)
	UpdateRecipe(id int64, mutator func(*Recipe) error) (Recipe, error)
	DeleteRecipe(id int64) error
	FindRecipe(id int64) (Recipe, bool)
}

// TransactionView provides read-only access to transactional snapshot data.
type TransactionView interface {
	ListRecipes() []Recipe
	FindRecipe(id int64) (Recipe, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error
	View(ctx context.Context, fn func(TransactionView) error) error
	GetRecipe(id int64) (Recipe, bool)
	ListRecipes() []Recipe
	Changes() []Change
}
