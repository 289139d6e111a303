package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/matjar-app/api/internal/platform/httpx"
	"github.com/matjar-app/api/internal/services"
)

// writeServiceError maps a service error onto the canonical JSON envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var unavailableProduct *services.ProductUnavailableError
	var insufficientStock *services.InsufficientStockError

	switch {
	case errors.As(err, &unavailableProduct):
		httpx.WriteError(ctx, w, httpx.NewError("product_unavailable", unavailableProduct.Error(), http.StatusConflict).
			WithDetails(map[string]any{"product": unavailableProduct.ProductName}))
	case errors.As(err, &insufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", insufficientStock.Error(), http.StatusConflict).
			WithDetails(map[string]any{
				"product":   insufficientStock.ProductName,
				"remaining": insufficientStock.Remaining,
			}))
	case errors.Is(err, services.ErrOrderEmptyCart),
		errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrCartInvalidStore),
		errors.Is(err, services.ErrOrderManageInvalidInput),
		errors.Is(err, services.ErrProductInvalidInput),
		errors.Is(err, services.ErrStoreInvalidInput),
		errors.Is(err, services.ErrStorePlanUnknown),
		errors.Is(err, services.ErrNotificationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderTransitionInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrProductLimitReached):
		httpx.WriteError(ctx, w, httpx.NewError("plan_limit_reached", err.Error(), http.StatusForbidden))
	case errors.Is(err, services.ErrStoreNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrStoreConflict),
		errors.Is(err, services.ErrProductConflict),
		errors.Is(err, services.ErrOrderConflict),
		errors.Is(err, services.ErrNotificationConflict):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderSubmitFailed):
		httpx.WriteError(ctx, w, httpx.NewError("submission_failed", "order could not be placed, please retry", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "temporary failure, please retry", http.StatusServiceUnavailable))
	}
}
