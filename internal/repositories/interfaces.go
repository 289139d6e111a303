package repositories

import (
	"context"
	"errors"
	"time"

	domain "github.com/matjar-app/api/internal/domain"
)

// RepositoryError is the contract persistence errors satisfy so services can
// translate backend failures without importing driver packages.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// StoreRepository persists merchant store profiles. Each merchant account
// owns at most one store, so the owner-UID lookup resolves a single record.
type StoreRepository interface {
	Insert(ctx context.Context, store domain.Store) (domain.Store, error)
	FindByID(ctx context.Context, storeID string) (domain.Store, error)
	FindBySlug(ctx context.Context, slug string) (domain.Store, error)
	FindByOwnerUID(ctx context.Context, ownerUID string) (domain.Store, error)
	Update(ctx context.Context, store domain.Store) (domain.Store, error)
}

// ProductRepository persists the per-store product catalogue.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, storeID, productID string) (domain.Product, error)
	List(ctx context.Context, storeID string) ([]domain.Product, error)
	Count(ctx context.Context, storeID string) (int, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, storeID, productID string) error
}

// OrderRepository reads and mutates placed orders for the merchant surface.
type OrderRepository interface {
	FindByID(ctx context.Context, storeID, orderID string) (domain.Order, error)
	List(ctx context.Context, storeID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, storeID, orderID string, status domain.OrderStatus, at time.Time) (domain.Order, error)
}

// OrderSubmitter commits the order-placement batch: every staged stock
// decrement plus the order document, atomically. Either all writes land or
// none do.
type OrderSubmitter interface {
	Submit(ctx context.Context, order domain.Order, decrements []domain.StockDecrement) (domain.Order, error)
}

// NotificationRepository persists in-app merchant notifications.
type NotificationRepository interface {
	Insert(ctx context.Context, notification domain.Notification) (domain.Notification, error)
	List(ctx context.Context, storeID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, storeID, notificationID string) error
}

// CartCollectionStorage is the durable client-side blob the cart store
// round-trips on every mutation: the whole collection under one fixed key.
type CartCollectionStorage interface {
	Load(ctx context.Context) (domain.CartCollection, error)
	Save(ctx context.Context, collection domain.CartCollection) error
}

// IsNotFound reports whether err carries repository not-found semantics.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsConflict reports whether err carries repository conflict semantics.
func IsConflict(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

// IsUnavailable reports whether err carries repository unavailability
// semantics.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
