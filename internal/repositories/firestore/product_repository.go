package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"

	domain "github.com/matjar-app/api/internal/domain"
	platform "github.com/matjar-app/api/internal/platform/firestore"
)

// ProductRepository persists the per-store catalogue under
// stores/<id>/products.
type ProductRepository struct {
	provider *platform.Provider
}

// NewProductRepository binds the repository to the shared provider.
func NewProductRepository(provider *platform.Provider) *ProductRepository {
	return &ProductRepository{provider: provider}
}

func productsPath(storeID string) string {
	return fmt.Sprintf("%s/%s/products", storesCollection, storeID)
}

func (r *ProductRepository) forStore(storeID string) *platform.BaseRepository[productDoc] {
	return platform.NewBaseRepository[productDoc](r.provider, productsPath(storeID), nil)
}

// Insert creates the product document, failing on an existing ID.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if _, err := r.forStore(product.StoreID).Create(ctx, product.ID, toProductDoc(product)); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// FindByID fetches one product of the store.
func (r *ProductRepository) FindByID(ctx context.Context, storeID, productID string) (domain.Product, error) {
	doc, err := r.forStore(storeID).Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(storeID, doc.ID), nil
}

// List returns the store's catalogue ordered by creation time.
func (r *ProductRepository) List(ctx context.Context, storeID string) ([]domain.Product, error) {
	docs, err := r.forStore(storeID).Query(ctx, func(query fs.Query) fs.Query {
		return query.OrderBy("createdAt", fs.Desc)
	})
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.Data.toDomain(storeID, doc.ID))
	}
	return products, nil
}

// Count reports how many products the store holds. Used for plan gating.
func (r *ProductRepository) Count(ctx context.Context, storeID string) (int, error) {
	docs, err := r.forStore(storeID).Query(ctx, func(query fs.Query) fs.Query {
		return query.Select()
	})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Update replaces the product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if _, err := r.forStore(product.StoreID).Set(ctx, product.ID, toProductDoc(product)); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, storeID, productID string) error {
	return r.forStore(storeID).Delete(ctx, productID)
}
