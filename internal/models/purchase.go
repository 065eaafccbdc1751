package models

import "time"

const (
	PurchaseStatusActive    = "active"
	PurchaseStatusCancelled = "cancelled"
	PurchaseStatusExpired   = "expired"
)

// Purchase is one row of the purchase ledger. Amount and credit are fixed
// at creation; only status, payment_receipt and expiry_date may change
// afterwards, and status moves forward only (active -> expired/cancelled).
type Purchase struct {
	ID             int       `json:"id"`
	UserID         string    `json:"user_id"`
	AmountPaid     float64   `json:"amount_paid"`
	PaymentDate    time.Time `json:"payment_date"`
	Status         string    `json:"status"`
	Credit         int       `json:"credit"`
	PaymentReceipt *string   `json:"payment_receipt,omitempty"`
	PaymentIntent  *string   `json:"payment_intent,omitempty"`
	PlanName       string    `json:"plan_name"`
	ExpiryDate     time.Time `json:"expiry_date"`
}

// PurchaseWithUser decorates a ledger row with profile fields for the
// admin subscription table.
type PurchaseWithUser struct {
	Purchase
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
}

type CheckoutRequest struct {
	PriceID string `json:"price_id"`
	Name    string `json:"name"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}
