package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/repositories"
)

var (
	// ErrOrderManageInvalidInput indicates missing identifiers or an unknown
	// status value.
	ErrOrderManageInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order does not exist in the store.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderConflict indicates a concurrent modification.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderUnavailable indicates the backing store failed.
	ErrOrderUnavailable = errors.New("order: unavailable")
	// ErrOrderTransitionInvalid indicates a status change the lifecycle does
	// not allow.
	ErrOrderTransitionInvalid = errors.New("order: status transition not allowed")

	errOrderRepoRequired = errors.New("order service: repository is required")
)

// orderTransitions is the merchant-facing order lifecycle. Terminal states
// accept no further changes.
var orderTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped: {domain.OrderStatusCompleted, domain.OrderStatusCancelled},
}

// OrderServiceDeps wires the merchant order surface.
type OrderServiceDeps struct {
	Repo   repositories.OrderRepository
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// OrderService exposes placed orders to the merchant dashboard: listing,
// lookup, and lifecycle transitions. Items and totals stay immutable after
// placement; only the status moves.
type OrderService struct {
	repo   repositories.OrderRepository
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewOrderService validates dependencies and applies defaults.
func NewOrderService(deps OrderServiceDeps) (*OrderService, error) {
	if deps.Repo == nil {
		return nil, errOrderRepoRequired
	}
	svc := &OrderService{repo: deps.Repo, clock: deps.Clock, logger: deps.Logger}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.logger == nil {
		svc.logger = func(context.Context, string, map[string]any) {}
	}
	return svc, nil
}

// Get returns one order of the store.
func (s *OrderService) Get(ctx context.Context, storeID, orderID string) (domain.Order, error) {
	storeID = strings.TrimSpace(storeID)
	orderID = strings.TrimSpace(orderID)
	if storeID == "" || orderID == "" {
		return domain.Order{}, ErrOrderManageInvalidInput
	}
	order, err := s.repo.FindByID(ctx, storeID, orderID)
	if err != nil {
		return domain.Order{}, translateRepoError(err, ErrOrderNotFound, ErrOrderConflict, ErrOrderUnavailable)
	}
	return order, nil
}

// List returns the store's orders, newest first per the repository's
// ordering.
func (s *OrderService) List(ctx context.Context, storeID string) ([]domain.Order, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, ErrOrderManageInvalidInput
	}
	orders, err := s.repo.List(ctx, storeID)
	if err != nil {
		return nil, translateRepoError(err, ErrOrderNotFound, ErrOrderConflict, ErrOrderUnavailable)
	}
	return orders, nil
}

// UpdateStatus moves the order along the lifecycle after checking the
// transition table.
func (s *OrderService) UpdateStatus(ctx context.Context, storeID, orderID string, next domain.OrderStatus) (domain.Order, error) {
	order, err := s.Get(ctx, storeID, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !transitionAllowed(order.Status, next) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrOrderTransitionInvalid, order.Status, next)
	}

	updated, err := s.repo.UpdateStatus(ctx, storeID, orderID, next, s.clock().UTC())
	if err != nil {
		return domain.Order{}, translateRepoError(err, ErrOrderNotFound, ErrOrderConflict, ErrOrderUnavailable)
	}
	s.logger(ctx, "order.status_changed", map[string]any{
		"store_id": storeID,
		"order_id": orderID,
		"from":     string(order.Status),
		"to":       string(next),
	})
	return updated, nil
}

func transitionAllowed(from, to domain.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
