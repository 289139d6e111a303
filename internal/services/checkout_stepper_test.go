package services

import (
	"context"
	"testing"
)

func checkoutCart(t *testing.T, lines int) *StoreCart {
	t.Helper()
	store, _ := newTestCartStore(t)
	cart, err := store.ForStore("store-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < lines; i++ {
		product := testProduct(string(rune('a'+i)), "Item", 1000)
		if err := cart.Add(context.Background(), product, 1); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	return cart
}

func TestStepperBlocksOnMissingName(t *testing.T) {
	session := NewCheckoutSession(checkoutCart(t, 1))
	session.SetDetails("", "0791234567")

	if session.Next() {
		t.Fatalf("advance should be refused")
	}
	if session.Step() != StepDetails {
		t.Fatalf("step moved to %d", session.Step())
	}
}

func TestStepperBlocksOnShortPhone(t *testing.T) {
	session := NewCheckoutSession(checkoutCart(t, 1))
	session.SetDetails("Ali", "123456")

	if session.CanAdvance() {
		t.Fatalf("six-digit phone should not validate")
	}
}

func TestStepperAdvancesWithValidDetails(t *testing.T) {
	session := NewCheckoutSession(checkoutCart(t, 1))
	session.SetDetails("Ali", "0791234567")

	if !session.Next() {
		t.Fatalf("advance should succeed")
	}
	if session.Step() != StepDelivery {
		t.Fatalf("expected step 2, got %d", session.Step())
	}
}

func TestStepperNeverReachesReviewWithoutDelivery(t *testing.T) {
	session := NewCheckoutSession(checkoutCart(t, 1))
	session.SetDetails("Ali", "0791234567")
	session.Next()

	// Address still empty, hammer the forward control.
	for i := 0; i < 5; i++ {
		session.Next()
	}
	if session.Step() == StepReview {
		t.Fatalf("review reached with empty address")
	}

	session.SetDelivery("Atlantis", "12 Rainbow St", "")
	for i := 0; i < 5; i++ {
		session.Next()
	}
	if session.Step() == StepReview {
		t.Fatalf("review reached with unknown governorate")
	}

	session.SetDelivery("Amman", "12 Rainbow St", "ring twice")
	if !session.Next() {
		t.Fatalf("advance should succeed with full delivery details")
	}
	if session.Step() != StepReview {
		t.Fatalf("expected step 3, got %d", session.Step())
	}
	if !session.ReviewValid() {
		t.Fatalf("review should validate")
	}
}

func TestStepperBackAlwaysPermitted(t *testing.T) {
	session := NewCheckoutSession(checkoutCart(t, 1))
	session.SetDetails("Ali", "0791234567")
	session.SetDelivery("Irbid", "University St 4", "")
	session.Next()
	session.Next()

	if !session.Back() {
		t.Fatalf("back from review should succeed")
	}
	if session.Step() != StepDelivery {
		t.Fatalf("expected step 2, got %d", session.Step())
	}
	if !session.Back() {
		t.Fatalf("back from delivery should succeed")
	}
	if session.Back() {
		t.Fatalf("back from step one should be a no-op")
	}
}

func TestEmptyCartShortCircuitsView(t *testing.T) {
	session := NewCheckoutSession(checkoutCart(t, 0))
	session.SetDetails("Ali", "0791234567")

	if got := session.View(); got != ViewEmpty {
		t.Fatalf("expected empty view, got %s", got)
	}
	// The stored step is irrelevant while the cart is empty.
	session.Next()
	if got := session.View(); got != ViewEmpty {
		t.Fatalf("expected empty view after navigation, got %s", got)
	}
}

func TestCompletedSessionShowsSuccess(t *testing.T) {
	cart := checkoutCart(t, 1)
	session := NewCheckoutSession(cart)

	session.Complete("https://wa.me/962790000000?text=order")
	if got := session.View(); got != ViewSuccess {
		t.Fatalf("expected success view, got %s", got)
	}

	// Success outranks empty: the cart is cleared after a placed order.
	if err := cart.Clear(context.Background()); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if got := session.View(); got != ViewSuccess {
		t.Fatalf("success view should survive the cleared cart, got %s", got)
	}
	if session.ConfirmationLink() == "" {
		t.Fatalf("confirmation link missing")
	}
}

func TestResetClearsDraftAndStep(t *testing.T) {
	session := NewCheckoutSession(checkoutCart(t, 1))
	session.SetDetails("Ali", "0791234567")
	session.SetDelivery("Aqaba", "Marina Rd 9", "")
	session.Next()
	session.Complete("https://wa.me/x")

	session.Reset()
	if session.Step() != StepDetails {
		t.Fatalf("expected step 1 after reset, got %d", session.Step())
	}
	if draft := session.Draft(); draft.Name != "" || draft.Address != "" {
		t.Fatalf("draft should be cleared, got %+v", draft)
	}
	if session.View() == ViewSuccess {
		t.Fatalf("reset should leave the success state")
	}
}
