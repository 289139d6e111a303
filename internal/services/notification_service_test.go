package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/matjar-app/api/internal/domain"
)

type stubEmail struct {
	recipients []string
	err        error
}

func (e *stubEmail) EnqueueEmail(_ context.Context, recipient, _, _ string) error {
	e.recipients = append(e.recipients, recipient)
	return e.err
}

func notificationFixture(t *testing.T, repo *memNotificationRepo, email EmailDispatcher) *NotificationService {
	t.Helper()
	svc, err := NewNotificationService(NotificationServiceDeps{
		Repo:        repo,
		Email:       email,
		Clock:       func() time.Time { return time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC) },
		IDGenerator: func() string { return "n-1" },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestDispatchPersistsInAppRecord(t *testing.T) {
	repo := &memNotificationRepo{}
	svc := notificationFixture(t, repo, nil)

	saved, err := svc.Dispatch(context.Background(), domain.Store{ID: "store-a", Plan: domain.PlanFree}, "owner@example.com", "order.placed", "New order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID != "n-1" || saved.StoreID != "store-a" || saved.Read {
		t.Fatalf("unexpected record: %+v", saved)
	}
	if len(repo.notifications) != 1 {
		t.Fatalf("expected one persisted notification, got %d", len(repo.notifications))
	}
}

func TestDispatchEmailGatedByPlan(t *testing.T) {
	cases := []struct {
		plan      domain.PlanTier
		wantEmail bool
	}{
		{domain.PlanFree, false},
		{domain.PlanBasic, true},
		{domain.PlanPro, true},
	}
	for _, tc := range cases {
		email := &stubEmail{}
		svc := notificationFixture(t, &memNotificationRepo{}, email)

		_, err := svc.Dispatch(context.Background(), domain.Store{ID: "store-a", Plan: tc.plan}, "owner@example.com", "order.placed", "New order")
		if err != nil {
			t.Fatalf("plan %s: unexpected error: %v", tc.plan, err)
		}
		if got := len(email.recipients) == 1; got != tc.wantEmail {
			t.Fatalf("plan %s: email sent=%v, want %v", tc.plan, got, tc.wantEmail)
		}
	}
}

func TestDispatchSurvivesEmailFailure(t *testing.T) {
	repo := &memNotificationRepo{}
	svc := notificationFixture(t, repo, &stubEmail{err: errors.New("topic gone")})

	_, err := svc.Dispatch(context.Background(), domain.Store{ID: "store-a", Plan: domain.PlanPro}, "owner@example.com", "order.placed", "New order")
	if err != nil {
		t.Fatalf("email failure must not fail the dispatch: %v", err)
	}
	if len(repo.notifications) != 1 {
		t.Fatalf("in-app record should still be persisted")
	}
}

func TestDispatchRejectsMissingFields(t *testing.T) {
	svc := notificationFixture(t, &memNotificationRepo{}, nil)
	if _, err := svc.Dispatch(context.Background(), domain.Store{ID: "store-a"}, "", "order.placed", "  "); !errors.Is(err, ErrNotificationInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDispatchTranslatesRepoFailure(t *testing.T) {
	svc := notificationFixture(t, &memNotificationRepo{err: unavailableFailure("firestore down")}, nil)
	_, err := svc.Dispatch(context.Background(), domain.Store{ID: "store-a"}, "", "order.placed", "msg")
	if !errors.Is(err, ErrNotificationUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestOrderPlacedSummarisesOrder(t *testing.T) {
	repo := &memNotificationRepo{}
	svc := notificationFixture(t, repo, nil)

	order := domain.Order{
		ID:      "order-1",
		StoreID: "store-a",
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Mug", Price: 1000, Quantity: 2},
		},
		Total:    2000,
		Customer: domain.CustomerInfo{Name: "Ali", Phone: "0791234567"},
	}
	store := domain.Store{ID: "store-a", Plan: domain.PlanFree, Email: "owner@example.com"}
	if err := svc.OrderPlaced(context.Background(), store, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	message := repo.notifications[0].Message
	for _, want := range []string{"order-1", "Ali", "2x Mug", "Total: 20.00"} {
		if !strings.Contains(message, want) {
			t.Fatalf("message missing %q:\n%s", want, message)
		}
	}
}

func TestMarkReadUnknownNotification(t *testing.T) {
	svc := notificationFixture(t, &memNotificationRepo{}, nil)
	if err := svc.MarkRead(context.Background(), "store-a", "ghost"); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
