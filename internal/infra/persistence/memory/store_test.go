package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pantrycore/pkg/domain"
)

func TestStoreCRUDAndQueries(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var soupID, stewID int64

	if err := store.RunInTransaction(ctx, func(tx Transaction) error {
		soup, err := tx.CreateRecipe(Recipe{Label: "Soup", Ingredients: "water; salt", Instructions: "boil", Calories: 50})
		if err != nil {
			return err
		}
		if soup.ID == 0 {
			return fmt.Errorf("expected assigned id")
		}
		soupID = soup.ID

		stew, err := tx.CreateRecipe(Recipe{Label: "Stew", Ingredients: "beef; carrots", Instructions: "braise", Calories: 640})
		if err != nil {
			return err
		}
		stewID = stew.ID
		if stewID == soupID {
			return fmt.Errorf("expected distinct ids, got %d twice", soupID)
		}

		if _, err := tx.CreateRecipe(Recipe{Base: domain.Base{ID: soupID}, Label: "Duplicate"}); err == nil {
			return fmt.Errorf("expected duplicate recipe error")
		}

		view := tx.Snapshot()
		if got := len(view.ListRecipes()); got != 2 {
			return fmt.Errorf("expected 2 recipes in view, got %d", got)
		}
		if _, ok := view.FindRecipe(99); ok {
			return fmt.Errorf("unexpected recipe lookup success")
		}
		return nil
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	recipes := store.ListRecipes()
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}
	if recipes[0].ID != soupID || recipes[1].ID != stewID {
		t.Fatalf("expected list ordered by id, got %d,%d", recipes[0].ID, recipes[1].ID)
	}
	if soup, ok := store.GetRecipe(soupID); !ok {
		t.Fatalf("expected recipe %d to exist", soupID)
	} else if soup.Label != "Soup" || soup.Calories != 50 {
		t.Fatalf("unexpected stored recipe %+v", soup)
	}

	if err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.UpdateRecipe(99, func(*Recipe) error { return nil }); err == nil {
			return fmt.Errorf("expected update error for missing recipe")
		}
		updated, err := tx.UpdateRecipe(stewID, func(r *Recipe) error {
			r.Label = "Beef Stew"
			r.Calories = 700
			return nil
		})
		if err != nil {
			return err
		}
		if updated.ID != stewID {
			return fmt.Errorf("expected id pinned to %d, got %d", stewID, updated.ID)
		}
		return nil
	}); err != nil {
		t.Fatalf("update transaction: %v", err)
	}

	if stew, ok := store.GetRecipe(stewID); !ok {
		t.Fatalf("expected recipe %d", stewID)
	} else if stew.Label != "Beef Stew" || stew.Calories != 700 {
		t.Fatalf("update not applied: %+v", stew)
	}

	if err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if err := tx.DeleteRecipe(soupID); err != nil {
			return err
		}
		if err := tx.DeleteRecipe(stewID); err != nil {
			return err
		}
		if err := tx.DeleteRecipe(soupID); err == nil {
			return fmt.Errorf("expected delete error for missing recipe")
		}
		return nil
	}); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}

	if len(store.ListRecipes()) != 0 {
		t.Fatalf("expected no recipes after deletion")
	}
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.CreateRecipe(Recipe{Label: "Ghost"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := len(store.ListRecipes()); got != 0 {
		t.Fatalf("expected rollback, found %d recipes", got)
	}
	if got := len(store.Changes()); got != 0 {
		t.Fatalf("expected empty journal after rollback, got %d entries", got)
	}
}

func TestUpdateRecipeNotFoundType(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateRecipe(5, func(*Recipe) error { return nil })
		return err
	})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.ID != 5 || nf.Entity != domain.EntityRecipe {
		t.Fatalf("unexpected error payload %+v", nf)
	}
}

func TestViewReadOnlySnapshot(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	var created Recipe
	if err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateRecipe(Recipe{Label: "Flatbread", Calories: 210})
		return err
	}); err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if err := store.View(ctx, func(view TransactionView) error {
		listed := view.ListRecipes()
		if len(listed) != 1 {
			t.Fatalf("expected single recipe, got %d", len(listed))
		}
		if _, ok := view.FindRecipe(created.ID); !ok {
			t.Fatalf("expected to find recipe %d", created.ID)
		}
		listed[0].Label = "mutated"
		return nil
	}); err != nil {
		t.Fatalf("view snapshot: %v", err)
	}

	if stored, _ := store.GetRecipe(created.ID); stored.Label != "Flatbread" {
		t.Fatalf("view mutation leaked into store: %+v", stored)
	}
}

func TestChangesJournal(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var id int64
	if err := store.RunInTransaction(ctx, func(tx Transaction) error {
		created, err := tx.CreateRecipe(Recipe{Label: "Curry"})
		if err != nil {
			return err
		}
		id = created.ID
		_, err = tx.UpdateRecipe(id, func(r *Recipe) error {
			r.Calories = 480
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	changes := store.Changes()
	if len(changes) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(changes))
	}
	if changes[0].Action != domain.ActionCreate || changes[1].Action != domain.ActionUpdate {
		t.Fatalf("unexpected journal actions %v, %v", changes[0].Action, changes[1].Action)
	}
	if changes[0].Entity != domain.EntityRecipe {
		t.Fatalf("unexpected journal entity %v", changes[0].Entity)
	}
	after, ok := changes[1].After.(Recipe)
	if !ok || after.Calories != 480 {
		t.Fatalf("unexpected update payload %+v", changes[1].After)
	}
}

func TestImportStateAdvancesSequence(t *testing.T) {
	store := NewStore()
	store.ImportState(Snapshot{Recipes: map[int64]Recipe{
		9: {Base: domain.Base{ID: 9}, Label: "Imported"},
	}})

	if _, ok := store.GetRecipe(9); !ok {
		t.Fatalf("expected imported recipe")
	}
	var created Recipe
	if err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateRecipe(Recipe{Label: "Fresh"})
		return err
	}); err != nil {
		t.Fatalf("create after import: %v", err)
	}
	if created.ID <= 9 {
		t.Fatalf("expected sequence past imported ids, got %d", created.ID)
	}
}

func TestExportStateIsDetached(t *testing.T) {
	store := NewStore()
	if err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateRecipe(Recipe{Label: "Base"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	snap := store.ExportState()
	for id, r := range snap.Recipes {
		r.Label = "mutated"
		snap.Recipes[id] = r
	}
	if listed := store.ListRecipes(); listed[0].Label != "Base" {
		t.Fatalf("snapshot mutation leaked into store: %+v", listed[0])
	}
}

func TestTimestampsAssignedOnCreate(t *testing.T) {
	store := NewStore()
	frozen := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return frozen })

	var created Recipe
	if err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateRecipe(Recipe{Label: "Toast"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.CreatedAt.Equal(frozen) || !created.UpdatedAt.Equal(frozen) {
		t.Fatalf("expected frozen timestamps, got %+v", created.Base)
	}

	later := frozen.Add(time.Hour)
	store.SetNowFunc(func() time.Time { return later })
	var updated Recipe
	if err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateRecipe(created.ID, func(r *Recipe) error {
			r.Calories = 90
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CreatedAt.Equal(frozen) {
		t.Fatalf("expected created_at preserved, got %v", updated.CreatedAt)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at advanced, got %v", updated.UpdatedAt)
	}
}
