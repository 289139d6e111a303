package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/repositories/localstore"
)

func newTestCartStore(t *testing.T) (*CartStore, *localstore.MemoryCartStore) {
	t.Helper()
	storage := localstore.NewMemoryCartStore()
	store, err := NewCartStore(context.Background(), CartStoreDeps{Storage: storage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store, storage
}

func testProduct(id, name string, price int64) domain.Product {
	return domain.Product{ID: id, Name: name, Price: price, ImageURL: "https://cdn.example/" + id + ".jpg"}
}

func TestCartsAreIsolatedPerStore(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestCartStore(t)

	cartA, err := store.ForStore("store-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cartB, err := store.ForStore("store-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cartA.Add(ctx, testProduct("p1", "Mug", 500), 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cartB.Add(ctx, testProduct("p1", "Mug", 700), 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cartA.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if got := cartA.ItemCount(); got != 0 {
		t.Fatalf("store-a cart should be empty, got %d items", got)
	}
	if got := cartB.ItemCount(); got != 1 {
		t.Fatalf("store-b cart should be untouched, got %d items", got)
	}
	if got := cartB.TotalPrice(); got != "7.00" {
		t.Fatalf("store-b total changed: %s", got)
	}
}

func TestAddMergesExistingLine(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestCartStore(t)
	cart, _ := store.ForStore("store-a")

	mug := testProduct("p1", "Mug", 1250)
	if err := cart.Add(ctx, mug, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cart.Add(ctx, mug, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	lines := cart.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", lines[0].Quantity)
	}
	if got := cart.ItemCount(); got != 3 {
		t.Fatalf("expected item count 3, got %d", got)
	}
	if got := cart.TotalPrice(); got != "37.50" {
		t.Fatalf("expected total 37.50, got %s", got)
	}
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	store, storage := newTestCartStore(t)
	cart, _ := store.ForStore("store-a")

	if err := cart.Add(ctx, testProduct("p1", "Mug", 500), 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cart.SetQuantity(ctx, "p1", 0); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}

	if got := cart.ItemCount(); got != 0 {
		t.Fatalf("expected empty cart, got %d items", got)
	}
	if got := cart.TotalPrice(); got != "0.00" {
		t.Fatalf("expected zero total, got %s", got)
	}
	// The emptied cart must also leave the persisted collection.
	if snapshot := storage.Snapshot(); len(snapshot) != 0 {
		t.Fatalf("empty cart should be pruned from storage, got %v", snapshot)
	}
}

func TestSetQuantityOnMissingLineIsNoOp(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestCartStore(t)
	cart, _ := store.ForStore("store-a")

	if err := cart.SetQuantity(ctx, "ghost", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cart.ItemCount(); got != 0 {
		t.Fatalf("missing line must not be created, got %d items", got)
	}
}

func TestEveryMutationPersists(t *testing.T) {
	ctx := context.Background()
	store, storage := newTestCartStore(t)
	cart, _ := store.ForStore("store-a")

	mug := testProduct("p1", "Mug", 500)
	if err := cart.Add(ctx, mug, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cart.SetQuantity(ctx, "p1", 4); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if err := cart.Remove(ctx, "p1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if got := storage.Saves(); got != 3 {
		t.Fatalf("expected 3 saves, got %d", got)
	}
}

func TestCartSurvivesReload(t *testing.T) {
	ctx := context.Background()
	storage := localstore.NewMemoryCartStore()

	first, err := NewCartStore(ctx, CartStoreDeps{Storage: storage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart, _ := first.ForStore("store-a")
	if err := cart.Add(ctx, testProduct("p1", "Mug", 1500), 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	second, err := NewCartStore(ctx, CartStoreDeps{Storage: storage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reloaded, _ := second.ForStore("store-a")
	if got := reloaded.ItemCount(); got != 2 {
		t.Fatalf("expected reloaded count 2, got %d", got)
	}
	if got := reloaded.TotalPrice(); got != "30.00" {
		t.Fatalf("expected reloaded total 30.00, got %s", got)
	}
}

type failingCartStorage struct {
	loaded domain.CartCollection
}

func (s *failingCartStorage) Load(context.Context) (domain.CartCollection, error) {
	return s.loaded.Clone(), nil
}

func (s *failingCartStorage) Save(context.Context, domain.CartCollection) error {
	return errors.New("disk full")
}

func TestFailedPersistLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	storage := &failingCartStorage{loaded: domain.CartCollection{
		"store-a": {"p1": {ProductID: "p1", Name: "Mug", Price: 500, Quantity: 1}},
	}}
	store, err := NewCartStore(ctx, CartStoreDeps{Storage: storage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart, _ := store.ForStore("store-a")

	err = cart.Add(ctx, testProduct("p2", "Scarf", 900), 1)
	if !errors.Is(err, ErrCartStorageUnavailable) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if got := cart.ItemCount(); got != 1 {
		t.Fatalf("failed persist must not change the cart, got %d items", got)
	}
}

func TestForStoreRejectsEmptyID(t *testing.T) {
	store, _ := newTestCartStore(t)
	if _, err := store.ForStore("  "); !errors.Is(err, ErrCartInvalidStore) {
		t.Fatalf("expected invalid store error, got %v", err)
	}
}
