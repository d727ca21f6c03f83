package blob

import (
	"context"
	"testing"

	"pantrycore/internal/config"
)

func TestOpenDefaultsToFilesystem(t *testing.T) {
	store, err := Open(context.Background(), config.Blob{FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", store.Driver())
	}
}

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), config.Blob{Driver: "memory"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	if _, err := Open(context.Background(), config.Blob{Driver: "s3"}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.Blob{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
