package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/repositories"
)

var (
	// ErrOrderEmptyCart rejects submission of a cart with no lines.
	ErrOrderEmptyCart = errors.New("order: cart is empty")
	// ErrOrderInvalidInput indicates an incomplete checkout draft.
	ErrOrderInvalidInput = errors.New("order: customer details are incomplete")
	// ErrOrderSubmitFailed wraps a failed batch commit. The backend's
	// atomicity guarantee means nothing was written.
	ErrOrderSubmitFailed = errors.New("order: submission failed")

	errOrderSubmitterRequired = errors.New("order placement: submitter is required")
)

// ProductUnavailableError reports a cart line whose product vanished from
// the stock snapshot.
type ProductUnavailableError struct {
	ProductName string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %q is no longer available", e.ProductName)
}

// InsufficientStockError reports a cart line requesting more units than the
// stock snapshot holds.
type InsufficientStockError struct {
	ProductName string
	Remaining   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: only %d left", e.ProductName, e.Remaining)
}

// MerchantNotifier dispatches the new-order notification to the merchant.
type MerchantNotifier interface {
	OrderPlaced(ctx context.Context, store domain.Store, order domain.Order) error
}

// CheckoutCart is the cart surface the placement protocol consumes.
type CheckoutCart interface {
	CartReader
	StoreID() string
	Clear(ctx context.Context) error
}

// OrderPlacementDeps wires the collaborators of the placement service.
type OrderPlacementDeps struct {
	Submitter   repositories.OrderSubmitter
	Notifier    MerchantNotifier
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
	// NotifyTimeout bounds the fire-and-forget notification dispatch.
	NotifyTimeout time.Duration
}

// OrderPlacementService converts a validated checkout draft plus the current
// cart into a durable order. Stock is validated against the snapshot the
// storefront last saw; the decrement writes and the order insert commit as
// one atomic batch.
type OrderPlacementService struct {
	submitter     repositories.OrderSubmitter
	notifier      MerchantNotifier
	clock         func() time.Time
	idGenerator   func() string
	logger        func(context.Context, string, map[string]any)
	notifyTimeout time.Duration
}

// NewOrderPlacementService validates dependencies and applies defaults.
func NewOrderPlacementService(deps OrderPlacementDeps) (*OrderPlacementService, error) {
	if deps.Submitter == nil {
		return nil, errOrderSubmitterRequired
	}
	svc := &OrderPlacementService{
		submitter:     deps.Submitter,
		notifier:      deps.Notifier,
		clock:         deps.Clock,
		idGenerator:   deps.IDGenerator,
		logger:        deps.Logger,
		notifyTimeout: deps.NotifyTimeout,
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.idGenerator == nil {
		svc.idGenerator = func() string { return ulid.Make().String() }
	}
	if svc.logger == nil {
		svc.logger = func(context.Context, string, map[string]any) {}
	}
	if svc.notifyTimeout <= 0 {
		svc.notifyTimeout = 10 * time.Second
	}
	return svc, nil
}

// PlacementResult carries the committed order and the confirmation deep
// link for the success screen.
type PlacementResult struct {
	Order        domain.Order
	WhatsAppLink string
}

// PlaceOrder runs the submission protocol: snapshot the cart, validate
// every line against the supplied stock view, commit the decrements and the
// order atomically, then notify the merchant without awaiting the dispatch
// and clear the cart. Any failure before or during the commit leaves the
// cart and draft untouched so the shopper can retry.
func (s *OrderPlacementService) PlaceOrder(ctx context.Context, store domain.Store, cart CheckoutCart, customer domain.CustomerInfo, stock []domain.ProductStock) (PlacementResult, error) {
	lines := cart.Lines()
	if len(lines) == 0 {
		return PlacementResult{}, ErrOrderEmptyCart
	}
	if !customerComplete(customer) {
		return PlacementResult{}, ErrOrderInvalidInput
	}

	available := make(map[string]domain.ProductStock, len(stock))
	for _, entry := range stock {
		available[entry.ID] = entry
	}

	items := make([]domain.OrderItem, 0, len(lines))
	decrements := make([]domain.StockDecrement, 0, len(lines))
	var total int64
	for _, line := range lines {
		entry, ok := available[line.ProductID]
		if !ok {
			return PlacementResult{}, &ProductUnavailableError{ProductName: line.Name}
		}
		if entry.Stock-line.Quantity < 0 {
			return PlacementResult{}, &InsufficientStockError{ProductName: line.Name, Remaining: entry.Stock}
		}
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
		decrements = append(decrements, domain.StockDecrement{ProductID: line.ProductID, Quantity: line.Quantity})
		total += line.Price * int64(line.Quantity)
	}

	order := domain.Order{
		ID:        s.idGenerator(),
		StoreID:   cart.StoreID(),
		Items:     items,
		Total:     total,
		Status:    domain.OrderStatusPending,
		Customer:  customer,
		CreatedAt: s.clock().UTC(),
	}
	order.UpdatedAt = order.CreatedAt

	committed, err := s.submitter.Submit(ctx, order, decrements)
	if err != nil {
		s.logger(ctx, "order.commit_failed", map[string]any{
			"store_id": order.StoreID,
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return PlacementResult{}, fmt.Errorf("%w: %v", ErrOrderSubmitFailed, err)
	}
	s.logger(ctx, "order.placed", map[string]any{
		"store_id": committed.StoreID,
		"order_id": committed.ID,
		"total":    committed.Total,
	})

	s.dispatchNotification(ctx, store, committed)

	// The order is placed once the batch commits; a failed cart clear must
	// not undo the success.
	if err := cart.Clear(ctx); err != nil {
		s.logger(ctx, "order.cart_clear_failed", map[string]any{
			"store_id": committed.StoreID,
			"order_id": committed.ID,
			"error":    err.Error(),
		})
	}

	link, err := WhatsAppOrderLink(store.WhatsAppPhone, committed)
	if err != nil {
		s.logger(ctx, "order.link_skipped", map[string]any{
			"store_id": committed.StoreID,
			"error":    err.Error(),
		})
		link = ""
	}
	return PlacementResult{Order: committed, WhatsAppLink: link}, nil
}

// dispatchNotification fires the merchant notification without awaiting it.
// Success of the placement does not depend on the dispatch outcome.
func (s *OrderPlacementService) dispatchNotification(ctx context.Context, store domain.Store, order domain.Order) {
	if s.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		notifyCtx, cancel := context.WithTimeout(detached, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.OrderPlaced(notifyCtx, store, order); err != nil {
			s.logger(notifyCtx, "order.notify_failed", map[string]any{
				"store_id": order.StoreID,
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}()
}

func customerComplete(customer domain.CustomerInfo) bool {
	return customer.Name != "" &&
		len(customer.Phone) >= minPhoneLength &&
		customer.Address != "" &&
		domain.ValidGovernorate(customer.Governorate)
}
