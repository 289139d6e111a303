// Package firestore implements the repository contracts on Cloud Firestore.
// Tenant data lives under the store document: stores/<id>/products,
// stores/<id>/orders, stores/<id>/notifications.
package firestore

import (
	"time"

	domain "github.com/matjar-app/api/internal/domain"
)

type storeDoc struct {
	OwnerUID      string    `firestore:"ownerUid"`
	Name          string    `firestore:"name"`
	Slug          string    `firestore:"slug"`
	WhatsAppPhone string    `firestore:"whatsappPhone"`
	Plan          string    `firestore:"plan"`
	Email         string    `firestore:"email"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func toStoreDoc(store domain.Store) storeDoc {
	return storeDoc{
		OwnerUID:      store.OwnerUID,
		Name:          store.Name,
		Slug:          store.Slug,
		WhatsAppPhone: store.WhatsAppPhone,
		Plan:          string(store.Plan),
		Email:         store.Email,
		CreatedAt:     store.CreatedAt,
		UpdatedAt:     store.UpdatedAt,
	}
}

func (d storeDoc) toDomain(id string) domain.Store {
	return domain.Store{
		ID:            id,
		OwnerUID:      d.OwnerUID,
		Name:          d.Name,
		Slug:          d.Slug,
		WhatsAppPhone: d.WhatsAppPhone,
		Plan:          domain.ParsePlanTier(d.Plan),
		Email:         d.Email,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type productDoc struct {
	Name           string    `firestore:"name"`
	Description    string    `firestore:"description"`
	Price          int64     `firestore:"price"`
	Stock          int       `firestore:"stock"`
	ImageURL       string    `firestore:"imageUrl"`
	Caption        string    `firestore:"caption"`
	SearchKeywords []string  `firestore:"searchKeywords"`
	CreatedAt      time.Time `firestore:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt"`
}

func toProductDoc(product domain.Product) productDoc {
	return productDoc{
		Name:           product.Name,
		Description:    product.Description,
		Price:          product.Price,
		Stock:          product.Stock,
		ImageURL:       product.ImageURL,
		Caption:        product.Caption,
		SearchKeywords: product.SearchKeywords,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}

func (d productDoc) toDomain(storeID, id string) domain.Product {
	return domain.Product{
		ID:             id,
		StoreID:        storeID,
		Name:           d.Name,
		Description:    d.Description,
		Price:          d.Price,
		Stock:          d.Stock,
		ImageURL:       d.ImageURL,
		Caption:        d.Caption,
		SearchKeywords: d.SearchKeywords,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type orderItemDoc struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	Price     int64  `firestore:"price"`
	Quantity  int    `firestore:"quantity"`
}

type customerDoc struct {
	Name        string `firestore:"name"`
	Phone       string `firestore:"phone"`
	Address     string `firestore:"address"`
	Governorate string `firestore:"governorate"`
	Notes       string `firestore:"notes"`
}

type orderDoc struct {
	Items     []orderItemDoc `firestore:"items"`
	Total     int64          `firestore:"total"`
	Status    string         `firestore:"status"`
	Customer  customerDoc    `firestore:"customer"`
	CreatedAt time.Time      `firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time      `firestore:"updatedAt"`
}

func toOrderDoc(order domain.Order) orderDoc {
	items := make([]orderItemDoc, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDoc{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return orderDoc{
		Items:  items,
		Total:  order.Total,
		Status: string(order.Status),
		Customer: customerDoc{
			Name:        order.Customer.Name,
			Phone:       order.Customer.Phone,
			Address:     order.Customer.Address,
			Governorate: order.Customer.Governorate,
			Notes:       order.Customer.Notes,
		},
		UpdatedAt: order.UpdatedAt,
	}
}

func (d orderDoc) toDomain(storeID, id string) domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return domain.Order{
		ID:      id,
		StoreID: storeID,
		Items:   items,
		Total:   d.Total,
		Status:  domain.OrderStatus(d.Status),
		Customer: domain.CustomerInfo{
			Name:        d.Customer.Name,
			Phone:       d.Customer.Phone,
			Address:     d.Customer.Address,
			Governorate: d.Customer.Governorate,
			Notes:       d.Customer.Notes,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type notificationDoc struct {
	Recipient string    `firestore:"recipient"`
	Event     string    `firestore:"event"`
	Message   string    `firestore:"message"`
	Read      bool      `firestore:"read"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func toNotificationDoc(notification domain.Notification) notificationDoc {
	return notificationDoc{
		Recipient: notification.Recipient,
		Event:     notification.Event,
		Message:   notification.Message,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}

func (d notificationDoc) toDomain(storeID, id string) domain.Notification {
	return domain.Notification{
		ID:        id,
		StoreID:   storeID,
		Recipient: d.Recipient,
		Event:     d.Event,
		Message:   d.Message,
		Read:      d.Read,
		CreatedAt: d.CreatedAt,
	}
}
