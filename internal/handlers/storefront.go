package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/platform/httpx"
	"github.com/matjar-app/api/internal/repositories/localstore"
	"github.com/matjar-app/api/internal/services"
)

// StorefrontHandlers serves the public shopper-facing API: store profiles,
// catalogues, and checkout submission.
type StorefrontHandlers struct {
	stores    StoreDirectory
	catalogue Catalogue
	placer    OrderPlacer
}

// NewStorefrontHandlers wires the public surface.
func NewStorefrontHandlers(stores StoreDirectory, catalogue Catalogue, placer OrderPlacer) *StorefrontHandlers {
	return &StorefrontHandlers{stores: stores, catalogue: catalogue, placer: placer}
}

// Routes registers the storefront routes.
func (h *StorefrontHandlers) Routes(r chi.Router) {
	r.Get("/{slug}", h.getStore)
	r.Get("/{slug}/products", h.listProducts)
	r.Post("/{slug}/orders", h.submitOrder)
}

type storefrontStoreResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	WhatsAppPhone string `json:"whatsappPhone"`
}

func (h *StorefrontHandlers) getStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.stores.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, storefrontStoreResponse{
		ID:            store.ID,
		Name:          store.Name,
		Slug:          store.Slug,
		WhatsAppPhone: store.WhatsAppPhone,
	})
}

type storefrontProductResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        int64  `json:"price"`
	PriceDisplay string `json:"priceDisplay"`
	Stock        int    `json:"stock"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Caption      string `json:"caption,omitempty"`
}

func (h *StorefrontHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.stores.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	products, err := h.catalogue.List(ctx, store.ID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	out := make([]storefrontProductResponse, 0, len(products))
	for _, product := range products {
		out = append(out, storefrontProductResponse{
			ID:           product.ID,
			Name:         product.Name,
			Description:  product.Description,
			Price:        product.Price,
			PriceDisplay: domain.FormatMinor(product.Price),
			Stock:        product.Stock,
			ImageURL:     product.ImageURL,
			Caption:      product.Caption,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": out})
}

type submitOrderRequest struct {
	Customer struct {
		Name        string `json:"name"`
		Phone       string `json:"phone"`
		Address     string `json:"address"`
		Governorate string `json:"governorate"`
		Notes       string `json:"notes"`
	} `json:"customer"`
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

type submitOrderResponse struct {
	OrderID      string `json:"orderId"`
	Total        int64  `json:"total"`
	TotalDisplay string `json:"totalDisplay"`
	Status       string `json:"status"`
	WhatsAppLink string `json:"whatsappLink,omitempty"`
}

// submitOrder converts the request into an ephemeral cart priced from the
// server-side catalogue and runs the placement protocol against the
// current stock view.
func (h *StorefrontHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, err := h.stores.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	var req submitOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed request body", http.StatusBadRequest))
		return
	}
	if len(req.Items) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "at least one item is required", http.StatusBadRequest))
		return
	}

	products, err := h.catalogue.List(ctx, store.ID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	byID := make(map[string]domain.Product, len(products))
	stock := make([]domain.ProductStock, 0, len(products))
	for _, product := range products {
		byID[product.ID] = product
		stock = append(stock, domain.ProductStock{ID: product.ID, Name: product.Name, Stock: product.Stock})
	}

	cartStore, err := services.NewCartStore(ctx, services.CartStoreDeps{Storage: localstore.NewMemoryCartStore()})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	cart, err := cartStore.ForStore(store.ID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "item quantity must be positive", http.StatusBadRequest))
			return
		}
		product, ok := byID[item.ProductID]
		if !ok {
			// Carry the line through so the placement protocol reports the
			// vanished product by name.
			product = domain.Product{ID: item.ProductID, Name: item.ProductID}
		}
		if err := cart.Add(ctx, product, item.Quantity); err != nil {
			writeServiceError(ctx, w, err)
			return
		}
	}

	customer := domain.CustomerInfo{
		Name:        req.Customer.Name,
		Phone:       req.Customer.Phone,
		Address:     req.Customer.Address,
		Governorate: req.Customer.Governorate,
		Notes:       req.Customer.Notes,
	}

	result, err := h.placer.PlaceOrder(ctx, store, cart, customer, stock)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, submitOrderResponse{
		OrderID:      result.Order.ID,
		Total:        result.Order.Total,
		TotalDisplay: domain.FormatMinor(result.Order.Total),
		Status:       string(result.Order.Status),
		WhatsAppLink: result.WhatsAppLink,
	})
}
