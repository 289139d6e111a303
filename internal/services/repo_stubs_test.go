package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	domain "github.com/matjar-app/api/internal/domain"
)

// repoFailure mimics a classified persistence error.
type repoFailure struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoFailure) Error() string       { return e.msg }
func (e *repoFailure) IsNotFound() bool    { return e.notFound }
func (e *repoFailure) IsConflict() bool    { return e.conflict }
func (e *repoFailure) IsUnavailable() bool { return e.unavailable }

func notFoundFailure(msg string) *repoFailure    { return &repoFailure{msg: msg, notFound: true} }
func unavailableFailure(msg string) *repoFailure { return &repoFailure{msg: msg, unavailable: true} }

type memStoreRepo struct {
	stores map[string]domain.Store
	err    error
}

func newMemStoreRepo(stores ...domain.Store) *memStoreRepo {
	repo := &memStoreRepo{stores: map[string]domain.Store{}}
	for _, store := range stores {
		repo.stores[store.ID] = store
	}
	return repo
}

func (r *memStoreRepo) Insert(_ context.Context, store domain.Store) (domain.Store, error) {
	if r.err != nil {
		return domain.Store{}, r.err
	}
	r.stores[store.ID] = store
	return store, nil
}

func (r *memStoreRepo) FindByID(_ context.Context, storeID string) (domain.Store, error) {
	if r.err != nil {
		return domain.Store{}, r.err
	}
	store, ok := r.stores[storeID]
	if !ok {
		return domain.Store{}, notFoundFailure("store " + storeID + " missing")
	}
	return store, nil
}

func (r *memStoreRepo) FindBySlug(_ context.Context, slug string) (domain.Store, error) {
	if r.err != nil {
		return domain.Store{}, r.err
	}
	for _, store := range r.stores {
		if store.Slug == slug {
			return store, nil
		}
	}
	return domain.Store{}, notFoundFailure("slug " + slug + " missing")
}

func (r *memStoreRepo) FindByOwnerUID(_ context.Context, ownerUID string) (domain.Store, error) {
	if r.err != nil {
		return domain.Store{}, r.err
	}
	for _, store := range r.stores {
		if store.OwnerUID == ownerUID {
			return store, nil
		}
	}
	return domain.Store{}, notFoundFailure("owner " + ownerUID + " has no store")
}

func (r *memStoreRepo) Update(_ context.Context, store domain.Store) (domain.Store, error) {
	if r.err != nil {
		return domain.Store{}, r.err
	}
	if _, ok := r.stores[store.ID]; !ok {
		return domain.Store{}, notFoundFailure("store " + store.ID + " missing")
	}
	r.stores[store.ID] = store
	return store, nil
}

type memProductRepo struct {
	products map[string]domain.Product
	err      error
}

func newMemProductRepo(products ...domain.Product) *memProductRepo {
	repo := &memProductRepo{products: map[string]domain.Product{}}
	for _, product := range products {
		repo.products[product.StoreID+"/"+product.ID] = product
	}
	return repo
}

func (r *memProductRepo) Insert(_ context.Context, product domain.Product) (domain.Product, error) {
	if r.err != nil {
		return domain.Product{}, r.err
	}
	r.products[product.StoreID+"/"+product.ID] = product
	return product, nil
}

func (r *memProductRepo) FindByID(_ context.Context, storeID, productID string) (domain.Product, error) {
	if r.err != nil {
		return domain.Product{}, r.err
	}
	product, ok := r.products[storeID+"/"+productID]
	if !ok {
		return domain.Product{}, notFoundFailure("product " + productID + " missing")
	}
	return product, nil
}

func (r *memProductRepo) List(_ context.Context, storeID string) ([]domain.Product, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Product
	for _, product := range r.products {
		if product.StoreID == storeID {
			out = append(out, product)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memProductRepo) Count(ctx context.Context, storeID string) (int, error) {
	products, err := r.List(ctx, storeID)
	return len(products), err
}

func (r *memProductRepo) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	if r.err != nil {
		return domain.Product{}, r.err
	}
	key := product.StoreID + "/" + product.ID
	if _, ok := r.products[key]; !ok {
		return domain.Product{}, notFoundFailure("product " + product.ID + " missing")
	}
	r.products[key] = product
	return product, nil
}

func (r *memProductRepo) Delete(_ context.Context, storeID, productID string) error {
	if r.err != nil {
		return r.err
	}
	key := storeID + "/" + productID
	if _, ok := r.products[key]; !ok {
		return notFoundFailure("product " + productID + " missing")
	}
	delete(r.products, key)
	return nil
}

type memOrderRepo struct {
	orders map[string]domain.Order
	err    error
}

func newMemOrderRepo(orders ...domain.Order) *memOrderRepo {
	repo := &memOrderRepo{orders: map[string]domain.Order{}}
	for _, order := range orders {
		repo.orders[order.StoreID+"/"+order.ID] = order
	}
	return repo
}

func (r *memOrderRepo) FindByID(_ context.Context, storeID, orderID string) (domain.Order, error) {
	if r.err != nil {
		return domain.Order{}, r.err
	}
	order, ok := r.orders[storeID+"/"+orderID]
	if !ok {
		return domain.Order{}, notFoundFailure("order " + orderID + " missing")
	}
	return order, nil
}

func (r *memOrderRepo) List(_ context.Context, storeID string) ([]domain.Order, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Order
	for _, order := range r.orders {
		if order.StoreID == storeID {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, storeID, orderID string, status domain.OrderStatus, at time.Time) (domain.Order, error) {
	if r.err != nil {
		return domain.Order{}, r.err
	}
	key := storeID + "/" + orderID
	order, ok := r.orders[key]
	if !ok {
		return domain.Order{}, notFoundFailure("order " + orderID + " missing")
	}
	order.Status = status
	order.UpdatedAt = at
	r.orders[key] = order
	return order, nil
}

type memNotificationRepo struct {
	notifications []domain.Notification
	err           error
}

func (r *memNotificationRepo) Insert(_ context.Context, notification domain.Notification) (domain.Notification, error) {
	if r.err != nil {
		return domain.Notification{}, r.err
	}
	r.notifications = append(r.notifications, notification)
	return notification, nil
}

func (r *memNotificationRepo) List(_ context.Context, storeID string, limit int) ([]domain.Notification, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Notification
	for _, notification := range r.notifications {
		if notification.StoreID == storeID {
			out = append(out, notification)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, storeID, notificationID string) error {
	if r.err != nil {
		return r.err
	}
	for i, notification := range r.notifications {
		if notification.StoreID == storeID && notification.ID == notificationID {
			r.notifications[i].Read = true
			return nil
		}
	}
	return notFoundFailure(fmt.Sprintf("notification %s missing", notificationID))
}
