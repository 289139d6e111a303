package firestore

import (
	"testing"
	"time"

	domain "github.com/matjar-app/api/internal/domain"
)

func TestOrderDocCreationTimeIsServerAssigned(t *testing.T) {
	order := domain.Order{
		ID:      "order-1",
		StoreID: "store-1",
		Items:   []domain.OrderItem{{ProductID: "p-mug", Name: "Mug", Price: 750, Quantity: 2}},
		Total:   1500,
		Status:  domain.OrderStatusPending,
		// The service clock stamps the domain object, but the document must
		// leave createdAt zero so the serverTimestamp tag takes effect.
		CreatedAt: time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC),
	}

	doc := toOrderDoc(order)
	if !doc.CreatedAt.IsZero() {
		t.Fatalf("createdAt must stay zero for server assignment, got %v", doc.CreatedAt)
	}
	if doc.UpdatedAt.IsZero() {
		t.Fatalf("updatedAt must carry the service clock value")
	}
	if doc.Total != 1500 || len(doc.Items) != 1 || doc.Items[0].Quantity != 2 {
		t.Fatalf("unexpected doc: %+v", doc)
	}
}

func TestStoreDocRoundTripsPlanTier(t *testing.T) {
	store := domain.Store{
		ID:            "store-1",
		OwnerUID:      "uid-1",
		Name:          "Dar Alzain",
		Slug:          "dar-alzain",
		WhatsAppPhone: "+962790000000",
		Plan:          domain.PlanBasic,
	}

	got := toStoreDoc(store).toDomain(store.ID)
	if got.Plan != domain.PlanBasic {
		t.Fatalf("plan = %s, want %s", got.Plan, domain.PlanBasic)
	}
	if got.OwnerUID != "uid-1" || got.Slug != "dar-alzain" {
		t.Fatalf("unexpected store: %+v", got)
	}
}
