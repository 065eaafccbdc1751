package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string

	// Where Stripe sends the user back after checkout (front-end pages).
	SuccessURL string
	CancelURL  string

	Logger *slog.Logger
}

// StripeService wraps checkout session creation and webhook signature
// verification. Verification always runs against the raw request body;
// a re-serialized copy would not match the signature byte for byte.
type StripeService struct {
	webhookSecret string
	successURL    string
	cancelURL     string
	logger        *slog.Logger
}

func NewStripeService(cfg StripeConfig) (*StripeService, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" || strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("stripe: secret_key/webhook_secret are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stripe.Key = cfg.SecretKey

	s := &StripeService{
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		logger:        logger,
	}
	logger.Info("Stripe initialized",
		"successURL_set", s.successURL != "",
		"cancelURL_set", s.cancelURL != "",
	)
	return s, nil
}

// CreateCheckoutSession opens a one-off payment session for the given plan
// and returns the hosted checkout URL. The metadata carries everything the
// webhook needs to credit the right user later.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, priceID, planName string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		BillingAddressCollection: stripe.String("required"),
		SuccessURL:               stripe.String(s.successURL),
		CancelURL:                stripe.String(s.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata("userId", userID)
	params.AddMetadata("priceId", priceID)
	params.AddMetadata("name", planName)

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	if strings.TrimSpace(sess.URL) == "" {
		return "", fmt.Errorf("create checkout session: empty url")
	}
	return sess.URL, nil
}

// VerifyWebhook authenticates the raw payload against the signature header
// and the shared endpoint secret, returning the parsed event envelope.
func (s *StripeService) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		s.logger.Error("webhook verification failed", "err", err)
		return stripe.Event{}, fmt.Errorf("webhook error: %w", err)
	}
	return event, nil
}
