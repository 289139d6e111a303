package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	domain "github.com/matjar-app/api/internal/domain"
)

func TestFileCartStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "carts.json")
	store, err := NewFileCartStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("loading a missing blob should not fail: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty collection, got %v", loaded)
	}

	collection := domain.CartCollection{
		"store-a": {
			"p1": {ProductID: "p1", Name: "Mug", Price: 1000, Quantity: 2},
		},
		"store-b": {
			"p9": {ProductID: "p9", Name: "Scarf", Price: 750, Quantity: 1, ImageURL: "https://cdn.example/p9.jpg"},
		},
	}
	if err := store.Save(ctx, collection); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(reloaded) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(reloaded))
	}
	line := reloaded["store-a"]["p1"]
	if line.Name != "Mug" || line.Price != 1000 || line.Quantity != 2 {
		t.Fatalf("unexpected line after round trip: %+v", line)
	}
}

func TestFileCartStoreOverwritesAtomically(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "carts.json")
	store, err := NewFileCartStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Save(ctx, domain.CartCollection{"s": {"p": {ProductID: "p", Quantity: 1}}}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := store.Save(ctx, domain.CartCollection{}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(reloaded) != 0 {
		t.Fatalf("expected empty collection after overwrite, got %v", reloaded)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files should not linger, found %d entries", len(entries))
	}
}

func TestFileCartStoreRejectsEmptyPath(t *testing.T) {
	if _, err := NewFileCartStore("   "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestMemoryCartStoreCopiesOnSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCartStore()

	collection := domain.CartCollection{"s": {"p": {ProductID: "p", Quantity: 3}}}
	if err := store.Save(ctx, collection); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	line := collection["s"]["p"]
	line.Quantity = 99
	collection["s"]["p"] = line

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded["s"]["p"].Quantity != 3 {
		t.Fatalf("memory store should not alias caller data")
	}
	if store.Saves() != 1 {
		t.Fatalf("expected one recorded save, got %d", store.Saves())
	}
}
