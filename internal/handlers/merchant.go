package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/platform/httpx"
	"github.com/matjar-app/api/internal/platform/requestctx"
	"github.com/matjar-app/api/internal/services"
)

// MerchantHandlers serves the authenticated merchant API under /me. Every
// route except store creation resolves the caller's store and checks
// ownership before touching it.
type MerchantHandlers struct {
	stores        StoreDirectory
	catalogue     Catalogue
	orders        OrderBook
	notifications NotificationFeed
}

// NewMerchantHandlers wires the merchant surface.
func NewMerchantHandlers(stores StoreDirectory, catalogue Catalogue, orders OrderBook, notifications NotificationFeed) *MerchantHandlers {
	return &MerchantHandlers{stores: stores, catalogue: catalogue, orders: orders, notifications: notifications}
}

// Routes registers the merchant routes.
func (h *MerchantHandlers) Routes(r chi.Router) {
	r.Post("/store", h.createStore)
	r.Get("/store", h.getStore)
	r.Patch("/store", h.updateStore)
	r.Post("/store/plan", h.startUpgrade)

	r.Post("/products", h.createProduct)
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Patch("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)

	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Patch("/orders/{orderID}/status", h.updateOrderStatus)

	r.Get("/notifications", h.listNotifications)
	r.Post("/notifications/{notificationID}/read", h.markNotificationRead)
}

// ownedStore resolves the caller's store and rejects access when it belongs
// to another merchant. Tokens carry a storeId claim only when provisioning
// set one; without it the store document's owner UID is the source of truth.
func (h *MerchantHandlers) ownedStore(w http.ResponseWriter, r *http.Request) (domain.Store, bool) {
	ctx := r.Context()
	identity, ok := requestctx.IdentityFrom(ctx)
	if !ok || identity.UID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "authentication required", http.StatusUnauthorized))
		return domain.Store{}, false
	}

	var store domain.Store
	var err error
	if identity.StoreID != "" {
		store, err = h.stores.Get(ctx, identity.StoreID)
	} else {
		store, err = h.stores.GetByOwner(ctx, identity.UID)
	}
	if err != nil {
		if errors.Is(err, services.ErrStoreNotFound) {
			httpx.WriteError(ctx, w, httpx.NewError("store_missing", "no store registered for this account", http.StatusNotFound))
			return domain.Store{}, false
		}
		writeServiceError(ctx, w, err)
		return domain.Store{}, false
	}
	if store.OwnerUID != identity.UID {
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "store belongs to another account", http.StatusForbidden))
		return domain.Store{}, false
	}
	return store, true
}

type merchantStoreResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	WhatsAppPhone string `json:"whatsappPhone"`
	Email         string `json:"email,omitempty"`
	Plan          string `json:"plan"`
}

func toMerchantStoreResponse(store domain.Store) merchantStoreResponse {
	return merchantStoreResponse{
		ID:            store.ID,
		Name:          store.Name,
		Slug:          store.Slug,
		WhatsAppPhone: store.WhatsAppPhone,
		Email:         store.Email,
		Plan:          string(store.Plan),
	}
}

type createStoreRequest struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	WhatsAppPhone string `json:"whatsappPhone"`
	Email         string `json:"email"`
}

func (h *MerchantHandlers) createStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestctx.IdentityFrom(ctx)
	if !ok || identity.UID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "authentication required", http.StatusUnauthorized))
		return
	}

	var req createStoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed request body", http.StatusBadRequest))
		return
	}
	email := req.Email
	if email == "" {
		email = identity.Email
	}

	store, err := h.stores.Create(ctx, services.CreateStoreCommand{
		OwnerUID:      identity.UID,
		Name:          req.Name,
		Slug:          req.Slug,
		WhatsAppPhone: req.WhatsAppPhone,
		Email:         email,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toMerchantStoreResponse(store))
}

func (h *MerchantHandlers) getStore(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMerchantStoreResponse(store))
}

type updateStoreRequest struct {
	Name          *string `json:"name"`
	WhatsAppPhone *string `json:"whatsappPhone"`
	Email         *string `json:"email"`
}

func (h *MerchantHandlers) updateStore(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req updateStoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed request body", http.StatusBadRequest))
		return
	}

	updated, err := h.stores.Update(ctx, services.UpdateStoreCommand{
		StoreID:       store.ID,
		Name:          req.Name,
		WhatsAppPhone: req.WhatsAppPhone,
		Email:         req.Email,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMerchantStoreResponse(updated))
}

type startUpgradeRequest struct {
	Plan string `json:"plan"`
}

func (h *MerchantHandlers) startUpgrade(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req startUpgradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed request body", http.StatusBadRequest))
		return
	}

	checkoutURL, err := h.stores.StartUpgrade(ctx, store.ID, domain.PlanTier(req.Plan))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"checkoutUrl": checkoutURL})
}

type merchantProductResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        int64  `json:"price"`
	PriceDisplay string `json:"priceDisplay"`
	Stock        int    `json:"stock"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Caption      string `json:"caption,omitempty"`
}

func toMerchantProductResponse(product domain.Product) merchantProductResponse {
	return merchantProductResponse{
		ID:           product.ID,
		Name:         product.Name,
		Description:  product.Description,
		Price:        product.Price,
		PriceDisplay: domain.FormatMinor(product.Price),
		Stock:        product.Stock,
		ImageURL:     product.ImageURL,
		Caption:      product.Caption,
	}
}

type createProductRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Price            int64  `json:"price"`
	Stock            int    `json:"stock"`
	ImageBase64      string `json:"imageBase64"`
	ImageContentType string `json:"imageContentType"`
}

func (h *MerchantHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req createProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed request body", http.StatusBadRequest))
		return
	}

	var image []byte
	if req.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "imageBase64 is not valid base64", http.StatusBadRequest))
			return
		}
		image = decoded
	}

	product, err := h.catalogue.Create(ctx, services.CreateProductCommand{
		StoreID:          store.ID,
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		Stock:            req.Stock,
		Image:            image,
		ImageContentType: req.ImageContentType,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toMerchantProductResponse(product))
}

func (h *MerchantHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	products, err := h.catalogue.List(ctx, store.ID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	out := make([]merchantProductResponse, 0, len(products))
	for _, product := range products {
		out = append(out, toMerchantProductResponse(product))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": out})
}

func (h *MerchantHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	product, err := h.catalogue.Get(ctx, store.ID, chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMerchantProductResponse(product))
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Stock       *int    `json:"stock"`
}

func (h *MerchantHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req updateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed request body", http.StatusBadRequest))
		return
	}

	product, err := h.catalogue.Update(ctx, services.UpdateProductCommand{
		StoreID:     store.ID,
		ProductID:   chi.URLParam(r, "productID"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMerchantProductResponse(product))
}

func (h *MerchantHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := h.catalogue.Delete(ctx, store.ID, chi.URLParam(r, "productID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type merchantOrderItemResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

type merchantCustomerResponse struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Governorate string `json:"governorate"`
	Notes       string `json:"notes,omitempty"`
}

type merchantOrderResponse struct {
	ID           string                      `json:"id"`
	Status       string                      `json:"status"`
	Total        int64                       `json:"total"`
	TotalDisplay string                      `json:"totalDisplay"`
	Customer     merchantCustomerResponse    `json:"customer"`
	Items        []merchantOrderItemResponse `json:"items"`
	CreatedAt    string                      `json:"createdAt"`
}

func toMerchantOrderResponse(order domain.Order) merchantOrderResponse {
	items := make([]merchantOrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, merchantOrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return merchantOrderResponse{
		ID:           order.ID,
		Status:       string(order.Status),
		Total:        order.Total,
		TotalDisplay: domain.FormatMinor(order.Total),
		Customer: merchantCustomerResponse{
			Name:        order.Customer.Name,
			Phone:       order.Customer.Phone,
			Address:     order.Customer.Address,
			Governorate: order.Customer.Governorate,
			Notes:       order.Customer.Notes,
		},
		Items:        items,
		CreatedAt:    order.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *MerchantHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	orders, err := h.orders.List(ctx, store.ID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	out := make([]merchantOrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toMerchantOrderResponse(order))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *MerchantHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	order, err := h.orders.Get(ctx, store.ID, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMerchantOrderResponse(order))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *MerchantHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req updateOrderStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed request body", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateStatus(ctx, store.ID, chi.URLParam(r, "orderID"), domain.OrderStatus(req.Status))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMerchantOrderResponse(order))
}

type merchantNotificationResponse struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

func (h *MerchantHandlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	notifications, err := h.notifications.List(ctx, store.ID, limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	out := make([]merchantNotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, merchantNotificationResponse{
			ID:        notification.ID,
			Event:     notification.Event,
			Message:   notification.Message,
			Read:      notification.Read,
			CreatedAt: notification.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

func (h *MerchantHandlers) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	store, ok := h.ownedStore(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := h.notifications.MarkRead(ctx, store.ID, chi.URLParam(r, "notificationID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
