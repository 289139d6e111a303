package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/repositories"
)

var (
	// ErrNotificationInvalidInput indicates missing required fields.
	ErrNotificationInvalidInput = errors.New("notification: invalid input")
	// ErrNotificationNotFound indicates the notification does not exist.
	ErrNotificationNotFound = errors.New("notification: not found")
	// ErrNotificationConflict indicates a concurrent modification.
	ErrNotificationConflict = errors.New("notification: conflict")
	// ErrNotificationUnavailable indicates the backing store failed.
	ErrNotificationUnavailable = errors.New("notification: unavailable")

	errNotificationRepoRequired = errors.New("notification service: repository is required")
)

// EmailDispatcher enqueues an outbound email for asynchronous delivery.
type EmailDispatcher interface {
	EnqueueEmail(ctx context.Context, recipient, subject, body string) error
}

// NotificationServiceDeps wires the persistence and delivery collaborators.
type NotificationServiceDeps struct {
	Repo        repositories.NotificationRepository
	Email       EmailDispatcher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// NotificationService persists in-app merchant notifications and, when the
// store's plan carries the entitlement, enqueues an email copy. Email
// delivery is best effort; the in-app record is the source of truth.
type NotificationService struct {
	repo        repositories.NotificationRepository
	email       EmailDispatcher
	clock       func() time.Time
	idGenerator func() string
	logger      func(context.Context, string, map[string]any)
}

// NewNotificationService validates dependencies and applies defaults.
func NewNotificationService(deps NotificationServiceDeps) (*NotificationService, error) {
	if deps.Repo == nil {
		return nil, errNotificationRepoRequired
	}
	svc := &NotificationService{
		repo:        deps.Repo,
		email:       deps.Email,
		clock:       deps.Clock,
		idGenerator: deps.IDGenerator,
		logger:      deps.Logger,
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
	return svc, nil
}

// Dispatch persists the in-app notification and enqueues the email copy
// when the plan allows it.
func (s *NotificationService) Dispatch(ctx context.Context, store domain.Store, recipient, event, message string) (domain.Notification, error) {
	recipient = strings.TrimSpace(recipient)
	event = strings.TrimSpace(event)
	message = strings.TrimSpace(message)
	if store.ID == "" || event == "" || message == "" {
		return domain.Notification{}, ErrNotificationInvalidInput
	}

	notification := domain.Notification{
		ID:        s.idGenerator(),
		StoreID:   store.ID,
		Recipient: recipient,
		Event:     event,
		Message:   message,
		CreatedAt: s.clock().UTC(),
	}
	saved, err := s.repo.Insert(ctx, notification)
	if err != nil {
		return domain.Notification{}, translateRepoError(err, ErrNotificationNotFound, ErrNotificationConflict, ErrNotificationUnavailable)
	}

	if s.email != nil && recipient != "" && domain.EntitlementsFor(store.Plan).EmailNotifications {
		if err := s.email.EnqueueEmail(ctx, recipient, event, message); err != nil {
			s.logger(ctx, "notification.email_enqueue_failed", map[string]any{
				"store_id": store.ID,
				"event":    event,
				"error":    err.Error(),
			})
		}
	}
	return saved, nil
}

// OrderPlaced notifies the merchant about a freshly committed order. It is
// the dispatch target of the order placement protocol.
func (s *NotificationService) OrderPlaced(ctx context.Context, store domain.Store, order domain.Order) error {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s from %s (%s)\n", order.ID, order.Customer.Name, order.Customer.Phone)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %dx %s\n", item.Quantity, item.Name)
	}
	fmt.Fprintf(&b, "Total: %s", domain.FormatMinor(order.Total))

	_, err := s.Dispatch(ctx, store, store.Email, "order.placed", b.String())
	return err
}

// List returns the store's most recent notifications.
func (s *NotificationService) List(ctx context.Context, storeID string, limit int) ([]domain.Notification, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, ErrNotificationInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	notifications, err := s.repo.List(ctx, storeID, limit)
	if err != nil {
		return nil, translateRepoError(err, ErrNotificationNotFound, ErrNotificationConflict, ErrNotificationUnavailable)
	}
	return notifications, nil
}

// MarkRead flags a notification as seen by the merchant.
func (s *NotificationService) MarkRead(ctx context.Context, storeID, notificationID string) error {
	storeID = strings.TrimSpace(storeID)
	notificationID = strings.TrimSpace(notificationID)
	if storeID == "" || notificationID == "" {
		return ErrNotificationInvalidInput
	}
	if err := s.repo.MarkRead(ctx, storeID, notificationID); err != nil {
		return translateRepoError(err, ErrNotificationNotFound, ErrNotificationConflict, ErrNotificationUnavailable)
	}
	return nil
}
