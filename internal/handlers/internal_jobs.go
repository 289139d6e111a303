package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matjar-app/api/internal/platform/httpx"
	"github.com/matjar-app/api/internal/platform/jobs"
	"github.com/matjar-app/api/internal/platform/requestctx"
)

// InternalHandlers receives Pub/Sub push deliveries from the media worker.
// A non-2xx response makes Pub/Sub redeliver, so only transient failures
// are reported as errors; malformed messages are acknowledged and logged.
type InternalHandlers struct {
	catalogue Catalogue
}

// NewInternalHandlers wires the internal push surface.
func NewInternalHandlers(catalogue Catalogue) *InternalHandlers {
	return &InternalHandlers{catalogue: catalogue}
}

// Routes registers the internal routes.
func (h *InternalHandlers) Routes(r chi.Router) {
	r.Post("/jobs/media", h.mediaResult)
}

// mediaJobResult is what the media worker pushes back after finishing an
// enrichment job.
type mediaJobResult struct {
	Kind      string `json:"kind"`
	StoreID   string `json:"storeId"`
	ProductID string `json:"productId"`
	Caption   string `json:"caption,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

func (h *InternalHandlers) mediaResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestctx.Logger(ctx)

	data, jobType, err := jobs.DecodePush(r)
	if err != nil {
		logger.Warn("dropping malformed media push", zap.Error(err))
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"dropped": true})
		return
	}

	var result mediaJobResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warn("dropping undecodable media result", zap.Error(err))
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"dropped": true})
		return
	}
	if result.Kind == "" {
		result.Kind = jobType
	}

	switch result.Kind {
	case jobs.JobTypeCaption:
		_, err = h.catalogue.SetCaption(ctx, result.StoreID, result.ProductID, result.Caption)
	case jobs.JobTypeBackgroundRemoval:
		_, err = h.catalogue.SetImageURL(ctx, result.StoreID, result.ProductID, result.ImageURL)
	default:
		logger.Warn("dropping media result with unknown kind", zap.String("kind", result.Kind))
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"dropped": true})
		return
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"applied": true})
}
