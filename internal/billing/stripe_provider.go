// Package billing runs plan subscriptions through Stripe Checkout. The
// store's tier only changes once the webhook confirms a completed session.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	domain "github.com/matjar-app/api/internal/domain"
)

const (
	metadataStoreID = "storeId"
	metadataPlan    = "plan"
)

var (
	// ErrBillingUnavailable indicates a Stripe API failure.
	ErrBillingUnavailable = errors.New("billing: unavailable")
	// ErrUnknownPlan indicates a tier with no configured price.
	ErrUnknownPlan = errors.New("billing: no price configured for plan")
	// ErrInvalidWebhook indicates a webhook payload that failed signature
	// verification or decoding.
	ErrInvalidWebhook = errors.New("billing: invalid webhook")
)

// Logger is the event-style logging contract used across services.
type Logger func(ctx context.Context, event string, fields map[string]any)

type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeBillerConfig configures the Stripe-backed plan biller.
type StripeBillerConfig struct {
	APIKey        string
	WebhookSecret string
	BasicPriceID  string
	ProPriceID    string
	SuccessURL    string
	CancelURL     string
	Logger        Logger
	Clock         func() time.Time
	Sessions      sessionAPI
}

// StripeBiller starts hosted subscription checkouts and interprets the
// confirmation webhooks.
type StripeBiller struct {
	sessions      sessionAPI
	webhookSecret string
	prices        map[domain.PlanTier]string
	successURL    string
	cancelURL     string
	clock         func() time.Time
	logger        Logger
}

// NewStripeBiller constructs the biller from configuration.
func NewStripeBiller(cfg StripeBillerConfig) (*StripeBiller, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Sessions == nil {
		return nil, errors.New("billing: stripe api key is required")
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sc := client.New(apiKey, nil)
		sessions = sc.CheckoutSessions
	}

	prices := map[domain.PlanTier]string{}
	if price := strings.TrimSpace(cfg.BasicPriceID); price != "" {
		prices[domain.PlanBasic] = price
	}
	if price := strings.TrimSpace(cfg.ProPriceID); price != "" {
		prices[domain.PlanPro] = price
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeBiller{
		sessions:      sessions,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		prices:        prices,
		successURL:    strings.TrimSpace(cfg.SuccessURL),
		cancelURL:     strings.TrimSpace(cfg.CancelURL),
		clock:         clock,
		logger:        logger,
	}, nil
}

// StartPlanCheckout opens a subscription checkout session toward the
// target tier and returns the hosted payment page URL.
func (b *StripeBiller) StartPlanCheckout(ctx context.Context, store domain.Store, target domain.PlanTier) (string, error) {
	price, ok := b.prices[target]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, target)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(b.successURL),
		CancelURL:         stripe.String(b.cancelURL),
		ClientReferenceID: stripe.String(store.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataStoreID, store.ID)
	params.AddMetadata(metadataPlan, string(target))
	if store.Email != "" {
		params.CustomerEmail = stripe.String(store.Email)
	}
	params.SetIdempotencyKey(fmt.Sprintf("plan-%s-%s-%d", store.ID, target, b.clock().UTC().Unix()))

	session, err := b.sessions.New(params)
	if err != nil {
		b.logger(ctx, "billing.checkout_failed", map[string]any{
			"store_id": store.ID,
			"plan":     string(target),
			"error":    err.Error(),
		})
		return "", fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}

	b.logger(ctx, "billing.checkout_started", map[string]any{
		"store_id":   store.ID,
		"plan":       string(target),
		"session_id": session.ID,
	})
	return session.URL, nil
}

// PlanActivation is the outcome of a confirmed checkout webhook.
type PlanActivation struct {
	StoreID string
	Tier    domain.PlanTier
}

// ParseActivation verifies the webhook signature and extracts the plan
// activation from a completed checkout session. Events of other types
// return ok=false with no error.
func (b *StripeBiller) ParseActivation(payload []byte, signature string) (PlanActivation, bool, error) {
	event, err := webhook.ConstructEvent(payload, signature, b.webhookSecret)
	if err != nil {
		return PlanActivation{}, false, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if event.Type != "checkout.session.completed" {
		return PlanActivation{}, false, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return PlanActivation{}, false, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	storeID := strings.TrimSpace(session.Metadata[metadataStoreID])
	if storeID == "" {
		storeID = strings.TrimSpace(session.ClientReferenceID)
	}
	plan := domain.ParsePlanTier(session.Metadata[metadataPlan])
	if storeID == "" || plan == domain.PlanFree {
		return PlanActivation{}, false, fmt.Errorf("%w: missing store or plan metadata", ErrInvalidWebhook)
	}
	return PlanActivation{StoreID: storeID, Tier: plan}, true, nil
}
