package firestore

import (
	"context"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/matjar-app/api/internal/domain"
	platform "github.com/matjar-app/api/internal/platform/firestore"
)

const storesCollection = "stores"

// StoreRepository persists merchant store profiles in the top-level stores
// collection.
type StoreRepository struct {
	base *platform.BaseRepository[storeDoc]
}

// NewStoreRepository binds the repository to the shared provider.
func NewStoreRepository(provider *platform.Provider) *StoreRepository {
	return &StoreRepository{
		base: platform.NewBaseRepository[storeDoc](provider, storesCollection, nil),
	}
}

// Insert creates the store document, failing on an existing ID.
func (r *StoreRepository) Insert(ctx context.Context, store domain.Store) (domain.Store, error) {
	if _, err := r.base.Create(ctx, store.ID, toStoreDoc(store)); err != nil {
		return domain.Store{}, err
	}
	return store, nil
}

// FindByID fetches the store by document ID.
func (r *StoreRepository) FindByID(ctx context.Context, storeID string) (domain.Store, error) {
	doc, err := r.base.Get(ctx, storeID)
	if err != nil {
		return domain.Store{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindBySlug resolves the unique storefront handle.
func (r *StoreRepository) FindBySlug(ctx context.Context, slug string) (domain.Store, error) {
	docs, err := r.base.Query(ctx, func(query fs.Query) fs.Query {
		return query.Where("slug", "==", slug).Limit(1)
	})
	if err != nil {
		return domain.Store{}, err
	}
	if len(docs) == 0 {
		return domain.Store{}, platform.WrapError("stores.find_by_slug", status.Errorf(codes.NotFound, "slug %q not found", slug))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// FindByOwnerUID resolves the store belonging to a merchant account. The
// auth token carries no store reference, so this query is how the merchant
// surface finds the caller's tenant.
func (r *StoreRepository) FindByOwnerUID(ctx context.Context, ownerUID string) (domain.Store, error) {
	docs, err := r.base.Query(ctx, func(query fs.Query) fs.Query {
		return query.Where("ownerUid", "==", ownerUID).Limit(1)
	})
	if err != nil {
		return domain.Store{}, err
	}
	if len(docs) == 0 {
		return domain.Store{}, platform.WrapError("stores.find_by_owner", status.Errorf(codes.NotFound, "owner %q has no store", ownerUID))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// Update replaces the store document.
func (r *StoreRepository) Update(ctx context.Context, store domain.Store) (domain.Store, error) {
	if _, err := r.base.Set(ctx, store.ID, toStoreDoc(store)); err != nil {
		return domain.Store{}, err
	}
	return store, nil
}
