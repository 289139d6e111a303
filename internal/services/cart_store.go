package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/repositories"
)

var (
	// ErrCartStorageUnavailable indicates the durable cart blob could not be
	// read or written; the in-memory state is left as it was.
	ErrCartStorageUnavailable = errors.New("cart: storage unavailable")
	// ErrCartInvalidStore indicates an empty store identifier.
	ErrCartInvalidStore = errors.New("cart: store id is required")

	errCartStorageRequired = errors.New("cart store: storage is required")
)

// CartStoreDeps wires the persistence and logging dependencies of the cart
// store.
type CartStoreDeps struct {
	Storage repositories.CartCollectionStorage
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

// CartStore holds every cart the shopper client is carrying, one per
// storefront, in shared memory. Each mutation persists the whole collection
// before returning, so all bound views observe the new state immediately and
// a reload starts from the last committed mutation.
type CartStore struct {
	mu         sync.Mutex
	collection domain.CartCollection
	storage    repositories.CartCollectionStorage
	logger     func(context.Context, string, map[string]any)
}

// NewCartStore loads the persisted collection and constructs the shared
// store.
func NewCartStore(ctx context.Context, deps CartStoreDeps) (*CartStore, error) {
	if deps.Storage == nil {
		return nil, errCartStorageRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	collection, err := deps.Storage.Load(ctx)
	if err != nil {
		logger(ctx, "cart.load_failed", map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrCartStorageUnavailable, err)
	}
	if collection == nil {
		collection = domain.CartCollection{}
	}

	return &CartStore{
		collection: collection,
		storage:    deps.Storage,
		logger:     logger,
	}, nil
}

// ForStore binds a per-store view onto the shared collection. Any number of
// callers may hold views for the same store; they all observe one state.
func (s *CartStore) ForStore(storeID string) (*StoreCart, error) {
	trimmed := strings.TrimSpace(storeID)
	if trimmed == "" {
		return nil, ErrCartInvalidStore
	}
	return &StoreCart{store: s, storeID: trimmed}, nil
}

// mutate applies fn to a working copy of the collection, persists it, and
// only then swaps it in. A failed persist leaves the observable state
// untouched.
func (s *CartStore) mutate(ctx context.Context, fn func(collection domain.CartCollection)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.collection.Clone()
	fn(working)
	pruneEmptyCarts(working)

	if err := s.storage.Save(ctx, working); err != nil {
		s.logger(ctx, "cart.persist_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("%w: %v", ErrCartStorageUnavailable, err)
	}
	s.collection = working
	return nil
}

func (s *CartStore) snapshot(storeID string) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.collection[storeID]
	dup := make(domain.Cart, len(cart))
	for id, line := range cart {
		dup[id] = line
	}
	return dup
}

func pruneEmptyCarts(collection domain.CartCollection) {
	for storeID, cart := range collection {
		if len(cart) == 0 {
			delete(collection, storeID)
		}
	}
}

// StoreCart is the per-store cart view handed to storefront components and
// the checkout stepper.
type StoreCart struct {
	store   *CartStore
	storeID string
}

// StoreID returns the storefront this view is bound to.
func (c *StoreCart) StoreID() string { return c.storeID }

// Add increments the quantity of an existing line or inserts a new line
// carrying a denormalized copy of the product's display fields.
func (c *StoreCart) Add(ctx context.Context, product domain.Product, quantity int) error {
	return c.store.mutate(ctx, func(collection domain.CartCollection) {
		cart := collection[c.storeID]
		if cart == nil {
			cart = domain.Cart{}
			collection[c.storeID] = cart
		}
		if line, ok := cart[product.ID]; ok {
			line.Quantity += quantity
			cart[product.ID] = line
			return
		}
		cart[product.ID] = domain.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
			ImageURL:  product.ImageURL,
		}
	})
}

// Remove deletes the line if present; removing an absent line is a no-op.
func (c *StoreCart) Remove(ctx context.Context, productID string) error {
	return c.store.mutate(ctx, func(collection domain.CartCollection) {
		delete(collection[c.storeID], productID)
	})
}

// SetQuantity sets the line's quantity to an absolute value. A quantity of
// zero or below removes the line.
func (c *StoreCart) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return c.Remove(ctx, productID)
	}
	return c.store.mutate(ctx, func(collection domain.CartCollection) {
		cart := collection[c.storeID]
		line, ok := cart[productID]
		if !ok {
			return
		}
		line.Quantity = quantity
		cart[productID] = line
	})
}

// Clear removes the entire cart for the bound store from the collection.
func (c *StoreCart) Clear(ctx context.Context) error {
	return c.store.mutate(ctx, func(collection domain.CartCollection) {
		delete(collection, c.storeID)
	})
}

// ItemCount returns the sum of all line quantities, zero when no cart
// exists.
func (c *StoreCart) ItemCount() int {
	total := 0
	for _, line := range c.store.snapshot(c.storeID) {
		total += line.Quantity
	}
	return total
}

// TotalPrice returns the cart total formatted to two decimal places,
// "0.00" when no cart exists. Summation happens in full minor-unit
// precision; formatting only at this boundary.
func (c *StoreCart) TotalPrice() string {
	return domain.FormatMinor(c.totalMinor())
}

func (c *StoreCart) totalMinor() int64 {
	var total int64
	for _, line := range c.store.snapshot(c.storeID) {
		total += line.Price * int64(line.Quantity)
	}
	return total
}

// Lines returns the cart lines ordered by product ID.
func (c *StoreCart) Lines() []domain.CartLine {
	cart := c.store.snapshot(c.storeID)
	lines := make([]domain.CartLine, 0, len(cart))
	for _, line := range cart {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}
