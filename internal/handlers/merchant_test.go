package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/platform/requestctx"
	"github.com/matjar-app/api/internal/services"
)

type stubOrderBook struct {
	orders []domain.Order
	err    error

	gotStatus domain.OrderStatus
}

func (s *stubOrderBook) Get(ctx context.Context, storeID, orderID string) (domain.Order, error) {
	for _, order := range s.orders {
		if order.ID == orderID {
			return order, nil
		}
	}
	return domain.Order{}, services.ErrOrderNotFound
}

func (s *stubOrderBook) List(ctx context.Context, storeID string) ([]domain.Order, error) {
	return s.orders, s.err
}

func (s *stubOrderBook) UpdateStatus(ctx context.Context, storeID, orderID string, next domain.OrderStatus) (domain.Order, error) {
	if s.err != nil {
		return domain.Order{}, s.err
	}
	s.gotStatus = next
	order, err := s.Get(ctx, storeID, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Status = next
	return order, nil
}

type stubNotificationFeed struct {
	notifications []domain.Notification
	readIDs       []string
	err           error
}

func (s *stubNotificationFeed) List(ctx context.Context, storeID string, limit int) ([]domain.Notification, error) {
	return s.notifications, s.err
}

func (s *stubNotificationFeed) MarkRead(ctx context.Context, storeID, notificationID string) error {
	if s.err != nil {
		return s.err
	}
	s.readIDs = append(s.readIDs, notificationID)
	return nil
}

func identityMiddleware(identity requestctx.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestctx.WithIdentity(r.Context(), identity)))
		})
	}
}

func merchantFixture(identity requestctx.Identity, orders *stubOrderBook, notifications *stubNotificationFeed) http.Handler {
	stores := &stubStoreDirectory{stores: map[string]domain.Store{
		"dar-alzain": {ID: "store-1", OwnerUID: "uid-1", Name: "Dar Alzain", Slug: "dar-alzain", Plan: domain.PlanFree},
	}}
	h := NewMerchantHandlers(stores, &stubCatalogue{}, orders, notifications)
	return NewRouter(WithMerchantRoutes(h.Routes, identityMiddleware(identity)))
}

func TestMerchantGetStore(t *testing.T) {
	router := merchantFixture(requestctx.Identity{UID: "uid-1", StoreID: "store-1"}, &stubOrderBook{}, &stubNotificationFeed{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me/store", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body merchantStoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ID != "store-1" || body.Plan != "free" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestMerchantStoreResolvedByOwnerWithoutClaim(t *testing.T) {
	// Fresh signups carry no storeId claim; the owner UID on the store
	// document must be enough to reach the merchant surface.
	router := merchantFixture(requestctx.Identity{UID: "uid-1"}, &stubOrderBook{}, &stubNotificationFeed{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me/store", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body merchantStoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ID != "store-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestMerchantWithoutStoreIs404(t *testing.T) {
	router := merchantFixture(requestctx.Identity{UID: "uid-unregistered"}, &stubOrderBook{}, &stubNotificationFeed{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me/store", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "store_missing") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestMerchantRejectsForeignStore(t *testing.T) {
	router := merchantFixture(requestctx.Identity{UID: "uid-other", StoreID: "store-1"}, &stubOrderBook{}, &stubNotificationFeed{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me/store", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestMerchantMissingIdentityIsUnauthorized(t *testing.T) {
	router := merchantFixture(requestctx.Identity{}, &stubOrderBook{}, &stubNotificationFeed{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me/store", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMerchantUpdateOrderStatus(t *testing.T) {
	orders := &stubOrderBook{orders: []domain.Order{{
		ID:        "order-1",
		StoreID:   "store-1",
		Status:    domain.OrderStatusPending,
		Total:     2750,
		CreatedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}}}
	router := merchantFixture(requestctx.Identity{UID: "uid-1", StoreID: "store-1"}, orders, &stubNotificationFeed{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/me/orders/order-1/status", strings.NewReader(`{"status":"SHIPPED"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if orders.gotStatus != domain.OrderStatusShipped {
		t.Fatalf("status passed to service = %q, want %q", orders.gotStatus, domain.OrderStatusShipped)
	}
	var body merchantOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.TotalDisplay != "27.50" || body.Status != "SHIPPED" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestMerchantInvalidTransitionIsConflict(t *testing.T) {
	orders := &stubOrderBook{err: services.ErrOrderTransitionInvalid}
	router := merchantFixture(requestctx.Identity{UID: "uid-1", StoreID: "store-1"}, orders, &stubNotificationFeed{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/me/orders/order-1/status", strings.NewReader(`{"status":"COMPLETED"}`)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestMerchantMarkNotificationRead(t *testing.T) {
	feed := &stubNotificationFeed{}
	router := merchantFixture(requestctx.Identity{UID: "uid-1", StoreID: "store-1"}, &stubOrderBook{}, feed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/me/notifications/n-1/read", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(feed.readIDs) != 1 || feed.readIDs[0] != "n-1" {
		t.Fatalf("read ids = %v, want [n-1]", feed.readIDs)
	}
}
