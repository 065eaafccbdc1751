package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v81"

	"controlhub/internal/config"
	"controlhub/internal/models"
	"controlhub/internal/repositories"
)

// ErrPurchaseInsert marks a failed primary write. The handler answers 500
// so Stripe's own redelivery becomes the retry boundary.
var ErrPurchaseInsert = errors.New("failed to insert purchase")

// BillingService turns verified Stripe events into additive mutations on
// the purchase ledger and the user credit counter.
//
// Each event id is consumed exactly once: the id is recorded before any
// side effect and a redelivered event becomes a logged no-op, so a retry
// can never double-credit a user.
type BillingService struct {
	PurchaseRepo *repositories.PurchaseRepository
	UserRepo     *repositories.UserRepository
	EventRepo    *repositories.WebhookEventRepository
	ReceiptRepo  *repositories.PendingReceiptRepository
	Catalog      config.Catalog
	Logger       *slog.Logger
}

func (s *BillingService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *BillingService) ProcessEvent(ctx context.Context, event stripe.Event) error {
	logger := s.logger().With("event_id", event.ID, "event_type", string(event.Type))

	first, err := s.EventRepo.MarkProcessed(ctx, event.ID, string(event.Type))
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	if !first {
		logger.Info("duplicate delivery, skipping")
		return nil
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event, logger)
	case stripe.EventTypeChargeUpdated:
		s.handleChargeUpdated(ctx, event, logger)
		return nil
	default:
		logger.Info("event type not handled")
		return nil
	}
}

func (s *BillingService) handleCheckoutCompleted(ctx context.Context, event stripe.Event, logger *slog.Logger) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		s.forget(ctx, event.ID, logger)
		return fmt.Errorf("decode checkout session: %w", err)
	}

	userID := sess.Metadata["userId"]
	priceID := sess.Metadata["priceId"]
	planName := sess.Metadata["name"]

	amountPaid := float64(sess.AmountTotal) / 100
	paymentDate := time.Unix(sess.Created, 0).UTC()

	credits, durationDays := s.Catalog.Lookup(priceID)
	expiryDate := paymentDate.AddDate(0, 0, durationDays)

	var paymentIntent *string
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		paymentIntent = &sess.PaymentIntent.ID
	}

	purchase, err := s.PurchaseRepo.CreatePurchase(ctx, models.Purchase{
		UserID:        userID,
		AmountPaid:    amountPaid,
		PaymentDate:   paymentDate,
		Status:        models.PurchaseStatusActive,
		Credit:        credits,
		PaymentIntent: paymentIntent,
		PlanName:      planName,
		ExpiryDate:    expiryDate,
	})
	if err != nil {
		logger.Error("failed to insert purchase", "err", err)
		s.forget(ctx, event.ID, logger)
		return fmt.Errorf("%w: %v", ErrPurchaseInsert, err)
	}
	logger.Info("purchase recorded",
		"purchase_id", purchase.ID, "user_id", userID, "price_id", priceID, "credits", credits,
	)

	// A charge.updated for this payment may already have come and gone.
	if paymentIntent != nil {
		if receiptURL, ok, err := s.ReceiptRepo.Take(ctx, *paymentIntent); err != nil {
			logger.Error("failed to check pending receipts", "err", err)
		} else if ok {
			if _, err := s.PurchaseRepo.AttachReceiptByIntent(ctx, *paymentIntent, receiptURL); err != nil {
				logger.Error("failed to attach buffered receipt", "err", err)
			}
		}
	}

	// The credit grant is a secondary write: a failure here is logged but
	// never fails the request, the purchase row already exists and the
	// payment confirmation must not be blocked.
	current, err := s.UserRepo.GetRemainingCredits(ctx, userID)
	if err != nil {
		logger.Error("failed to fetch user profile", "user_id", userID, "err", err)
		return nil
	}
	if err := s.UserRepo.SetRemainingCredits(ctx, userID, current+credits); err != nil {
		logger.Error("failed to update user credits", "user_id", userID, "err", err)
		return nil
	}
	logger.Info("credits granted", "user_id", userID, "credits", credits)
	return nil
}

// handleChargeUpdated patches the receipt URL onto the purchase matching
// the payment intent. Best effort: a missing field is a logged no-op, and
// if the purchase row does not exist yet the receipt is buffered until the
// checkout event arrives.
func (s *BillingService) handleChargeUpdated(ctx context.Context, event stripe.Event, logger *slog.Logger) {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		logger.Error("decode charge", "err", err)
		return
	}

	var paymentIntent string
	if charge.PaymentIntent != nil {
		paymentIntent = charge.PaymentIntent.ID
	}
	receiptURL := charge.ReceiptURL

	if paymentIntent == "" || receiptURL == "" {
		logger.Warn("missing payment_intent or receipt_url in charge.updated")
		return
	}

	matched, err := s.PurchaseRepo.AttachReceiptByIntent(ctx, paymentIntent, receiptURL)
	if err != nil {
		logger.Error("failed to update receipt url", "payment_intent", paymentIntent, "err", err)
		return
	}
	if matched == 0 {
		if err := s.ReceiptRepo.Store(ctx, paymentIntent, receiptURL); err != nil {
			logger.Error("failed to buffer receipt", "payment_intent", paymentIntent, "err", err)
			return
		}
		logger.Info("receipt buffered until checkout event arrives", "payment_intent", paymentIntent)
		return
	}
	logger.Info("receipt url attached", "payment_intent", paymentIntent, "rows", matched)
}

func (s *BillingService) forget(ctx context.Context, eventID string, logger *slog.Logger) {
	if err := s.EventRepo.Forget(ctx, eventID); err != nil {
		logger.Error("failed to release event id for redelivery", "err", err)
	}
}

func (s *BillingService) GetPurchasesByUser(ctx context.Context, userID string) ([]models.Purchase, error) {
	return s.PurchaseRepo.GetPurchasesByUser(ctx, userID)
}

func (s *BillingService) GetAllPurchases(ctx context.Context) ([]models.PurchaseWithUser, error) {
	return s.PurchaseRepo.GetAllPurchases(ctx)
}
