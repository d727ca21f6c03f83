package photos

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"pantrycore/internal/blob"
	blobmem "pantrycore/internal/infra/blob/memory"
	"pantrycore/internal/infra/persistence/memory"
	"pantrycore/pkg/domain"
)

func seedRecipe(t *testing.T, store *memory.Store) domain.Recipe {
	t.Helper()
	var created domain.Recipe
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateRecipe(domain.Recipe{
			Label:        "Ratatouille",
			Ingredients:  "eggplant, zucchini, tomato",
			Instructions: "Layer and bake.",
			Calories:     280,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed recipe: %v", err)
	}
	return created
}

func TestAttachListRemove(t *testing.T) {
	store := memory.NewStore()
	recipe := seedRecipe(t, store)
	svc := NewService(store, blobmem.New())
	ctx := context.Background()

	info, err := svc.Attach(ctx, recipe.ID, "plated.jpg", strings.NewReader("pixels"), blob.PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if info.Key != "recipes/1/plated.jpg" {
		t.Fatalf("unexpected key %q", info.Key)
	}

	if _, err := svc.Attach(ctx, recipe.ID, "closeup.jpg", strings.NewReader("more"), blob.PutOptions{}); err != nil {
		t.Fatalf("attach second: %v", err)
	}

	infos, err := svc.List(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "recipes/1/closeup.jpg" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	got, rc, err := svc.Open(ctx, recipe.ID, "plated.jpg")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "pixels" || got.ContentType != "image/jpeg" {
		t.Fatalf("unexpected photo: %q %+v", body, got)
	}

	existed, err := svc.Remove(ctx, recipe.ID, "plated.jpg")
	if err != nil || !existed {
		t.Fatalf("remove: existed=%v err=%v", existed, err)
	}
	infos, _ = svc.List(ctx, recipe.ID)
	if len(infos) != 1 {
		t.Fatalf("expected 1 photo after remove, got %d", len(infos))
	}
}

func TestAttachMissingRecipe(t *testing.T) {
	svc := NewService(memory.NewStore(), blobmem.New())
	_, err := svc.Attach(context.Background(), 7, "a.jpg", strings.NewReader("x"), blob.PutOptions{})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 7 {
		t.Fatalf("expected NotFoundError for recipe 7, got %v", err)
	}
}

func TestAttachRejectsBadNames(t *testing.T) {
	store := memory.NewStore()
	recipe := seedRecipe(t, store)
	svc := NewService(store, blobmem.New())

	for _, name := range []string{"", " ", "a/b.jpg", `a\b.jpg`, "..secret"} {
		if _, err := svc.Attach(context.Background(), recipe.ID, name, strings.NewReader("x"), blob.PutOptions{}); err == nil {
			t.Fatalf("expected name %q to be rejected", name)
		}
	}
}

func TestPresignURLUnsupportedBackend(t *testing.T) {
	store := memory.NewStore()
	recipe := seedRecipe(t, store)
	svc := NewService(store, blobmem.New())

	if _, err := svc.PresignURL(context.Background(), recipe.ID, "a.jpg", blob.SignedURLOptions{}); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
