package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/matjar-app/api/internal/domain"
)

type captionRecorder struct {
	stubCatalogue
	productID string
	caption   string
}

func (c *captionRecorder) SetCaption(ctx context.Context, storeID, productID, caption string) (domain.Product, error) {
	c.productID = productID
	c.caption = caption
	return domain.Product{ID: productID, Caption: caption}, nil
}

func TestHealthz(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestReadyzReportsFailingProbe(t *testing.T) {
	health := NewHealthHandlers()
	health.AddProbe("firestore", func(ctx context.Context) error { return errors.New("unreachable") })
	router := NewRouter(WithHealth(health))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(rec.Body.String(), "degraded") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "route_not_found") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUnwiredGroupAnswers501(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me/store", nil))

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotImplemented)
	}
}

func pushBody(jobType, payload string) string {
	data := base64.StdEncoding.EncodeToString([]byte(payload))
	return fmt.Sprintf(`{"message":{"data":"%s","attributes":{"jobType":"%s"},"messageId":"m-1"}}`, data, jobType)
}

func TestInternalMediaPushAppliesCaption(t *testing.T) {
	catalogue := &captionRecorder{}
	router := NewRouter(WithInternalRoutes(NewInternalHandlers(catalogue).Routes))

	body := pushBody("caption", `{"kind":"caption","storeId":"store-1","productId":"p-mug","caption":"Hand-thrown clay mug"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/internal/jobs/media", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if catalogue.caption != "Hand-thrown clay mug" || catalogue.productID != "p-mug" {
		t.Fatalf("caption not applied: %+v", catalogue)
	}
}

func TestInternalMediaPushAcksMalformedMessage(t *testing.T) {
	catalogue := &captionRecorder{}
	router := NewRouter(WithInternalRoutes(NewInternalHandlers(catalogue).Routes))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/internal/jobs/media", strings.NewReader(`not json`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("malformed push must be acked, got %d", rec.Code)
	}
	if catalogue.caption != "" {
		t.Fatalf("caption applied from malformed push: %+v", catalogue)
	}
}
