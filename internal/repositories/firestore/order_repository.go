package firestore

import (
	"context"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"

	domain "github.com/matjar-app/api/internal/domain"
	platform "github.com/matjar-app/api/internal/platform/firestore"
)

// OrderRepository persists placed orders under stores/<id>/orders and
// commits the placement batch.
type OrderRepository struct {
	provider *platform.Provider
}

// NewOrderRepository binds the repository to the shared provider.
func NewOrderRepository(provider *platform.Provider) *OrderRepository {
	return &OrderRepository{provider: provider}
}

func ordersPath(storeID string) string {
	return fmt.Sprintf("%s/%s/orders", storesCollection, storeID)
}

func (r *OrderRepository) forStore(storeID string) *platform.BaseRepository[orderDoc] {
	return platform.NewBaseRepository[orderDoc](r.provider, ordersPath(storeID), nil)
}

// Submit commits the placement batch in one transaction: a stock decrement
// per line plus the order document. Either everything lands or nothing
// does. Stock validation happens upstream against the storefront snapshot;
// the decrement here is unconditional.
func (r *OrderRepository) Submit(ctx context.Context, order domain.Order, decrements []domain.StockDecrement) (domain.Order, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	orderRef := client.Collection(ordersPath(order.StoreID)).Doc(order.ID)
	products := client.Collection(productsPath(order.StoreID))

	err = r.provider.RunTransaction(ctx, func(_ context.Context, tx *fs.Transaction) error {
		for _, decrement := range decrements {
			ref := products.Doc(decrement.ProductID)
			if err := tx.Update(ref, []fs.Update{
				{Path: "stock", Value: fs.Increment(int64(-decrement.Quantity))},
				{Path: "updatedAt", Value: fs.ServerTimestamp},
			}); err != nil {
				return err
			}
		}
		return tx.Create(orderRef, toOrderDoc(order))
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// FindByID fetches one order of the store.
func (r *OrderRepository) FindByID(ctx context.Context, storeID, orderID string) (domain.Order, error) {
	doc, err := r.forStore(storeID).Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(storeID, doc.ID), nil
}

// List returns the store's orders, newest first.
func (r *OrderRepository) List(ctx context.Context, storeID string) ([]domain.Order, error) {
	docs, err := r.forStore(storeID).Query(ctx, func(query fs.Query) fs.Query {
		return query.OrderBy("createdAt", fs.Desc)
	})
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(storeID, doc.ID))
	}
	return orders, nil
}

// UpdateStatus mutates only the status and update timestamp; items and
// total stay as written at placement.
func (r *OrderRepository) UpdateStatus(ctx context.Context, storeID, orderID string, status domain.OrderStatus, at time.Time) (domain.Order, error) {
	repo := r.forStore(storeID)
	if _, err := repo.Update(ctx, orderID, []fs.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: at},
	}); err != nil {
		return domain.Order{}, err
	}
	doc, err := repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(storeID, doc.ID), nil
}
