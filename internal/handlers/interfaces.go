package handlers

import (
	"context"

	"github.com/matjar-app/api/internal/billing"
	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/services"
)

// StoreDirectory is the merchant account surface the handlers consume.
type StoreDirectory interface {
	Create(ctx context.Context, cmd services.CreateStoreCommand) (domain.Store, error)
	Get(ctx context.Context, storeID string) (domain.Store, error)
	GetByOwner(ctx context.Context, ownerUID string) (domain.Store, error)
	GetBySlug(ctx context.Context, slug string) (domain.Store, error)
	Update(ctx context.Context, cmd services.UpdateStoreCommand) (domain.Store, error)
	StartUpgrade(ctx context.Context, storeID string, target domain.PlanTier) (string, error)
	ActivatePlan(ctx context.Context, storeID string, tier domain.PlanTier) (domain.Store, error)
}

// Catalogue is the product surface the handlers consume.
type Catalogue interface {
	Create(ctx context.Context, cmd services.CreateProductCommand) (domain.Product, error)
	Get(ctx context.Context, storeID, productID string) (domain.Product, error)
	List(ctx context.Context, storeID string) ([]domain.Product, error)
	StockView(ctx context.Context, storeID string) ([]domain.ProductStock, error)
	Update(ctx context.Context, cmd services.UpdateProductCommand) (domain.Product, error)
	Delete(ctx context.Context, storeID, productID string) error
	SetCaption(ctx context.Context, storeID, productID, caption string) (domain.Product, error)
	SetImageURL(ctx context.Context, storeID, productID, imageURL string) (domain.Product, error)
}

// OrderBook is the merchant order surface the handlers consume.
type OrderBook interface {
	Get(ctx context.Context, storeID, orderID string) (domain.Order, error)
	List(ctx context.Context, storeID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, storeID, orderID string, next domain.OrderStatus) (domain.Order, error)
}

// NotificationFeed is the merchant notification surface the handlers
// consume.
type NotificationFeed interface {
	List(ctx context.Context, storeID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, storeID, notificationID string) error
}

// OrderPlacer runs the checkout submission protocol.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, store domain.Store, cart services.CheckoutCart, customer domain.CustomerInfo, stock []domain.ProductStock) (services.PlacementResult, error)
}

// ActivationParser verifies billing webhooks and extracts plan activations.
type ActivationParser interface {
	ParseActivation(payload []byte, signature string) (billing.PlanActivation, bool, error)
}
