package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pantrycore/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	info, err := store.Put(ctx, "recipes/1/plated.jpg", strings.NewReader("jpegbytes"), core.PutOptions{
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"camera": "phone"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("jpegbytes")) || info.ContentType != "image/jpeg" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.ETag == "" {
		t.Fatalf("expected content digest etag")
	}

	got, rc, err := store.Get(ctx, "recipes/1/plated.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "jpegbytes" {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Metadata["camera"] != "phone" {
		t.Fatalf("metadata lost: %+v", got.Metadata)
	}
}

func TestPutRejectsExistingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatalf("expected second put to fail")
	}
}

func TestPutRollsBackDataFileOnSidecarFailure(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	// A directory squatting on the sidecar path makes the metadata write fail.
	if err := os.MkdirAll(filepath.Join(root, "dish.png"+attrsSuffix), 0o755); err != nil {
		t.Fatalf("block sidecar path: %v", err)
	}
	if _, err := store.Put(ctx, "dish.png", strings.NewReader("png"), core.PutOptions{}); err == nil {
		t.Fatalf("expected put to fail when sidecar cannot be written")
	}
	if _, err := os.Stat(filepath.Join(root, "dish.png")); !os.IsNotExist(err) {
		t.Fatalf("expected orphan data file removed, err=%v", err)
	}

	if err := os.Remove(filepath.Join(root, "dish.png"+attrsSuffix)); err != nil {
		t.Fatalf("unblock sidecar path: %v", err)
	}
	if _, err := store.Put(ctx, "dish.png", strings.NewReader("png"), core.PutOptions{}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", "/abs", "../escape", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestListFiltersByPrefixAndSkipsSidecars(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"recipes/1/a.jpg", "recipes/1/b.jpg", "recipes/2/c.jpg"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "recipes/1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 blobs, got %d", len(infos))
	}
	if infos[0].Key != "recipes/1/a.jpg" || infos[1].Key != "recipes/1/b.jpg" {
		t.Fatalf("unexpected keys: %+v", infos)
	}
}

func TestDeleteRemovesDataAndSidecar(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "dish.png", strings.NewReader("png"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	existed, err := store.Delete(ctx, "dish.png")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := os.Stat(filepath.Join(root, "dish.png"+attrsSuffix)); !os.IsNotExist(err) {
		t.Fatalf("expected sidecar removed, err=%v", err)
	}

	existed, err = store.Delete(ctx, "dish.png")
	if err != nil || existed {
		t.Fatalf("expected idempotent delete, existed=%v err=%v", existed, err)
	}
}

func TestPresignURLOnlyGet(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "local.blob") {
		t.Fatalf("unexpected url %q", url)
	}
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
