package domain

import (
	"fmt"
	"strings"
	"time"
)

// PlanTier identifies the subscription level of a merchant store.
type PlanTier string

const (
	PlanFree  PlanTier = "free"
	PlanBasic PlanTier = "basic"
	PlanPro   PlanTier = "pro"
)

// ParsePlanTier normalises a raw tier string, defaulting to the free plan.
func ParsePlanTier(raw string) PlanTier {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(PlanBasic):
		return PlanBasic
	case string(PlanPro):
		return PlanPro
	default:
		return PlanFree
	}
}

// OrderStatus enumerates the lifecycle states of a placed order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Store is one merchant tenant. The slug is the public storefront handle.
type Store struct {
	ID            string
	OwnerUID      string
	Name          string
	Slug          string
	WhatsAppPhone string
	Plan          PlanTier
	Email         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Product is a sellable item scoped under a store. Price is held in minor
// units (piasters); formatting happens only at presentation boundaries.
type Product struct {
	ID             string
	StoreID        string
	Name           string
	Description    string
	Price          int64
	Stock          int
	ImageURL       string
	Caption        string
	SearchKeywords []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProductStock is the read-only stock snapshot used to validate availability
// at submission time. It is supplied by the storefront's live product feed
// and never mutated by the cart engine.
type ProductStock struct {
	ID    string
	Name  string
	Stock int
}

// CartLine is one product-quantity pair held by a shopper for a store,
// carrying a denormalized copy of the display fields captured at add-time.
type CartLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Cart maps productID to CartLine for a single store.
type Cart map[string]CartLine

// CartCollection maps storeID to Cart. One collection exists per shopper
// client and is persisted as a single blob.
type CartCollection map[string]Cart

// Clone returns a deep copy of the collection.
func (c CartCollection) Clone() CartCollection {
	if c == nil {
		return CartCollection{}
	}
	dup := make(CartCollection, len(c))
	for storeID, cart := range c {
		lines := make(Cart, len(cart))
		for id, line := range cart {
			lines[id] = line
		}
		dup[storeID] = lines
	}
	return dup
}

// CustomerInfo is the checkout draft data copied onto the order at placement.
type CustomerInfo struct {
	Name        string
	Phone       string
	Address     string
	Governorate string
	Notes       string
}

// OrderItem is an immutable snapshot of a cart line at submission time.
type OrderItem struct {
	ProductID string
	Name      string
	Price     int64
	Quantity  int
}

// Order is the durable record created at successful checkout. Items and
// Total never change after creation; only Status does.
type Order struct {
	ID        string
	StoreID   string
	Items     []OrderItem
	Total     int64
	Status    OrderStatus
	Customer  CustomerInfo
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockDecrement is one staged stock mutation in the order submission batch.
type StockDecrement struct {
	ProductID string
	Quantity  int
}

// Notification is the in-app record persisted for a merchant event.
type Notification struct {
	ID        string
	StoreID   string
	Recipient string
	Event     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// FormatMinor renders a minor-unit amount with two-decimal display
// precision, e.g. 3000 -> "30.00".
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
