package services

import (
	"strings"

	domain "github.com/matjar-app/api/internal/domain"
)

const minPhoneLength = 7

// Checkout wizard steps.
const (
	StepDetails  = 1
	StepDelivery = 2
	StepReview   = 3
)

// CheckoutView names the screen the wizard should render.
type CheckoutView string

const (
	// ViewEmpty is rendered when the bound cart holds no items.
	ViewEmpty CheckoutView = "empty"
	// ViewStep renders the current wizard step.
	ViewStep CheckoutView = "step"
	// ViewSuccess is the confirmation screen shown after a placed order.
	ViewSuccess CheckoutView = "success"
)

// CartReader is the read surface the wizard needs from a bound cart.
type CartReader interface {
	ItemCount() int
	Lines() []domain.CartLine
	TotalPrice() string
}

// CheckoutSession drives the shopper through the three-step checkout
// wizard. The draft it collects is transient and never persisted; closing
// the wizard discards it.
type CheckoutSession struct {
	cart        CartReader
	step        int
	draft       domain.CustomerInfo
	completed   bool
	confirmLink string
}

// NewCheckoutSession opens a wizard over the given cart at step one with a
// cleared draft.
func NewCheckoutSession(cart CartReader) *CheckoutSession {
	return &CheckoutSession{cart: cart, step: StepDetails}
}

// View resolves the terminal states first: a completed session shows the
// confirmation, an empty cart short-circuits to the empty state regardless
// of the stored step, otherwise the current step renders.
func (s *CheckoutSession) View() CheckoutView {
	if s.completed {
		return ViewSuccess
	}
	if s.cart.ItemCount() == 0 {
		return ViewEmpty
	}
	return ViewStep
}

// Step returns the current wizard step.
func (s *CheckoutSession) Step() int { return s.step }

// Draft returns a copy of the collected customer input.
func (s *CheckoutSession) Draft() domain.CustomerInfo { return s.draft }

// ConfirmationLink returns the messaging deep link set on completion.
func (s *CheckoutSession) ConfirmationLink() string { return s.confirmLink }

// SetDetails records the step-one fields.
func (s *CheckoutSession) SetDetails(name, phone string) {
	s.draft.Name = strings.TrimSpace(name)
	s.draft.Phone = strings.TrimSpace(phone)
}

// SetDelivery records the step-two fields. Notes carry no constraint.
func (s *CheckoutSession) SetDelivery(governorate, address, notes string) {
	s.draft.Governorate = strings.TrimSpace(governorate)
	s.draft.Address = strings.TrimSpace(address)
	s.draft.Notes = strings.TrimSpace(notes)
}

// CanAdvance reports whether the current step's validation predicate holds.
func (s *CheckoutSession) CanAdvance() bool {
	switch s.step {
	case StepDetails:
		return s.detailsValid()
	case StepDelivery:
		return s.detailsValid() && s.deliveryValid()
	default:
		return false
	}
}

// Next advances one step when the current step validates. An invalid
// advance is a no-op, not an error; the caller keeps the forward control
// disabled based on CanAdvance.
func (s *CheckoutSession) Next() bool {
	if !s.CanAdvance() || s.step >= StepReview {
		return false
	}
	s.step++
	return true
}

// Back retreats one step and is always permitted above step one.
func (s *CheckoutSession) Back() bool {
	if s.step <= StepDetails {
		return false
	}
	s.step--
	return true
}

// ReviewValid reports whether the draft is complete enough to submit.
func (s *CheckoutSession) ReviewValid() bool {
	return s.step == StepReview && s.detailsValid() && s.deliveryValid()
}

// Complete moves the session into the success terminal state, keeping the
// deep link for the confirmation screen.
func (s *CheckoutSession) Complete(confirmLink string) {
	s.completed = true
	s.confirmLink = confirmLink
}

// Reset returns the wizard to its initial state with a cleared draft, as
// when the checkout UI is closed and reopened.
func (s *CheckoutSession) Reset() {
	s.step = StepDetails
	s.draft = domain.CustomerInfo{}
	s.completed = false
	s.confirmLink = ""
}

func (s *CheckoutSession) detailsValid() bool {
	return s.draft.Name != "" && len(s.draft.Phone) >= minPhoneLength
}

func (s *CheckoutSession) deliveryValid() bool {
	return s.draft.Address != "" && domain.ValidGovernorate(s.draft.Governorate)
}
