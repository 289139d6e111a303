package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matjar-app/api/internal/platform/httpx"
	"github.com/matjar-app/api/internal/platform/requestctx"
)

const maxWebhookBody = 1 << 16

// WebhookHandlers receives billing provider callbacks.
type WebhookHandlers struct {
	parser ActivationParser
	stores StoreDirectory
}

// NewWebhookHandlers wires the webhook surface.
func NewWebhookHandlers(parser ActivationParser, stores StoreDirectory) *WebhookHandlers {
	return &WebhookHandlers{parser: parser, stores: stores}
}

// Routes registers the webhook routes.
func (h *WebhookHandlers) Routes(r chi.Router) {
	r.Post("/stripe", h.stripe)
}

// stripe verifies the event signature and applies plan activations. Events
// we do not act on are acknowledged so the provider stops retrying them.
func (h *WebhookHandlers) stripe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unreadable payload", http.StatusBadRequest))
		return
	}

	activation, ok, err := h.parser.ParseActivation(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "webhook verification failed", http.StatusBadRequest))
		return
	}
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	if _, err := h.stores.ActivatePlan(ctx, activation.StoreID, activation.Tier); err != nil {
		requestctx.Logger(ctx).Error("plan activation failed",
			zap.String("store_id", activation.StoreID),
			zap.String("plan", string(activation.Tier)),
			zap.Error(err),
		)
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"received": true})
}
