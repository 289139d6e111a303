package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"

	domain "github.com/matjar-app/api/internal/domain"
	platform "github.com/matjar-app/api/internal/platform/firestore"
)

// NotificationRepository persists in-app merchant notifications under
// stores/<id>/notifications.
type NotificationRepository struct {
	provider *platform.Provider
}

// NewNotificationRepository binds the repository to the shared provider.
func NewNotificationRepository(provider *platform.Provider) *NotificationRepository {
	return &NotificationRepository{provider: provider}
}

func notificationsPath(storeID string) string {
	return fmt.Sprintf("%s/%s/notifications", storesCollection, storeID)
}

func (r *NotificationRepository) forStore(storeID string) *platform.BaseRepository[notificationDoc] {
	return platform.NewBaseRepository[notificationDoc](r.provider, notificationsPath(storeID), nil)
}

// Insert creates the notification document.
func (r *NotificationRepository) Insert(ctx context.Context, notification domain.Notification) (domain.Notification, error) {
	if _, err := r.forStore(notification.StoreID).Create(ctx, notification.ID, toNotificationDoc(notification)); err != nil {
		return domain.Notification{}, err
	}
	return notification, nil
}

// List returns the store's most recent notifications.
func (r *NotificationRepository) List(ctx context.Context, storeID string, limit int) ([]domain.Notification, error) {
	docs, err := r.forStore(storeID).Query(ctx, func(query fs.Query) fs.Query {
		return query.OrderBy("createdAt", fs.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}
	notifications := make([]domain.Notification, 0, len(docs))
	for _, doc := range docs {
		notifications = append(notifications, doc.Data.toDomain(storeID, doc.ID))
	}
	return notifications, nil
}

// MarkRead flags the notification as seen.
func (r *NotificationRepository) MarkRead(ctx context.Context, storeID, notificationID string) error {
	_, err := r.forStore(storeID).Update(ctx, notificationID, []fs.Update{
		{Path: "read", Value: true},
	})
	return err
}
