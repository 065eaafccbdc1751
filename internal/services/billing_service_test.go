package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stripe/stripe-go/v81"

	"controlhub/internal/config"
	"controlhub/internal/repositories"
)

func newBillingService(t *testing.T) (*BillingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	svc := &BillingService{
		PurchaseRepo: &repositories.PurchaseRepository{DB: db},
		UserRepo:     &repositories.UserRepository{DB: db},
		EventRepo:    repositories.NewWebhookEventRepository(db),
		ReceiptRepo:  repositories.NewPendingReceiptRepository(db),
		Catalog: config.NewCatalog([]config.Plan{
			{PriceID: "price_basic", Name: "Basic", Credits: 5, DurationDays: 28},
		}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return svc, mock
}

func checkoutEvent(t *testing.T, id string, raw string) stripe.Event {
	t.Helper()
	return stripe.Event{
		ID:   id,
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func chargeEvent(t *testing.T, id string, raw string) stripe.Event {
	t.Helper()
	return stripe.Event{
		ID:   id,
		Type: stripe.EventTypeChargeUpdated,
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func expectEventMarked(mock sqlmock.Sqlmock, eventID, eventType string) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS webhook_events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO webhook_events").
		WithArgs(eventID, eventType).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestCheckoutCompletedInsertsPurchaseAndGrantsCredits(t *testing.T) {
	svc, mock := newBillingService(t)

	paymentDate := time.Unix(1700000000, 0).UTC()
	expectEventMarked(mock, "evt_1", "checkout.session.completed")
	mock.ExpectExec("INSERT INTO purchases").
		WithArgs("user-1", 19.99, paymentDate, "active", 5, nil, sqlmock.AnyArg(), "Basic", paymentDate.AddDate(0, 0, 28)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pending_receipts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT receipt_url FROM pending_receipts").
		WithArgs("pi_1").
		WillReturnRows(sqlmock.NewRows([]string{"receipt_url"}))
	mock.ExpectQuery("SELECT remaining_credits FROM user_profiles").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"remaining_credits"}).AddRow(2))
	mock.ExpectExec("UPDATE user_profiles SET remaining_credits").
		WithArgs(7, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := checkoutEvent(t, "evt_1", `{
		"amount_total": 1999,
		"created": 1700000000,
		"metadata": {"userId": "user-1", "priceId": "price_basic", "name": "Basic"},
		"payment_intent": "pi_1"
	}`)
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCheckoutCompletedUnknownPriceUsesDefaults(t *testing.T) {
	svc, mock := newBillingService(t)

	paymentDate := time.Unix(1700000000, 0).UTC()
	expectEventMarked(mock, "evt_2", "checkout.session.completed")
	// Unknown price id: zero credits, 28 day validity.
	mock.ExpectExec("INSERT INTO purchases").
		WithArgs("user-1", 9.99, paymentDate, "active", 0, nil, sqlmock.AnyArg(), "Mystery", paymentDate.AddDate(0, 0, 28)).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pending_receipts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT receipt_url FROM pending_receipts").
		WithArgs("pi_2").
		WillReturnRows(sqlmock.NewRows([]string{"receipt_url"}))
	mock.ExpectQuery("SELECT remaining_credits FROM user_profiles").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"remaining_credits"}).AddRow(3))
	mock.ExpectExec("UPDATE user_profiles SET remaining_credits").
		WithArgs(3, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := checkoutEvent(t, "evt_2", `{
		"amount_total": 999,
		"created": 1700000000,
		"metadata": {"userId": "user-1", "priceId": "price_unknown", "name": "Mystery"},
		"payment_intent": "pi_2"
	}`)
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDuplicateEventIsNoOp(t *testing.T) {
	svc, mock := newBillingService(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS webhook_events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO webhook_events").
		WithArgs("evt_1", "checkout.session.completed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	event := checkoutEvent(t, "evt_1", `{
		"amount_total": 1999,
		"created": 1700000000,
		"metadata": {"userId": "user-1", "priceId": "price_basic", "name": "Basic"},
		"payment_intent": "pi_1"
	}`)
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	// No purchase insert, no credit update.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPurchaseInsertFailureReleasesEventID(t *testing.T) {
	svc, mock := newBillingService(t)

	expectEventMarked(mock, "evt_1", "checkout.session.completed")
	mock.ExpectExec("INSERT INTO purchases").
		WillReturnError(errors.New("connection lost"))
	mock.ExpectExec("DELETE FROM webhook_events").
		WithArgs("evt_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := checkoutEvent(t, "evt_1", `{
		"amount_total": 1999,
		"created": 1700000000,
		"metadata": {"userId": "user-1", "priceId": "price_basic", "name": "Basic"},
		"payment_intent": "pi_1"
	}`)
	err := svc.ProcessEvent(context.Background(), event)
	if !errors.Is(err, ErrPurchaseInsert) {
		t.Fatalf("err = %v, want ErrPurchaseInsert", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreditUpdateFailureDoesNotFailEvent(t *testing.T) {
	svc, mock := newBillingService(t)

	paymentDate := time.Unix(1700000000, 0).UTC()
	expectEventMarked(mock, "evt_1", "checkout.session.completed")
	mock.ExpectExec("INSERT INTO purchases").
		WithArgs("user-1", 19.99, paymentDate, "active", 5, nil, sqlmock.AnyArg(), "Basic", paymentDate.AddDate(0, 0, 28)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pending_receipts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT receipt_url FROM pending_receipts").
		WithArgs("pi_1").
		WillReturnRows(sqlmock.NewRows([]string{"receipt_url"}))
	mock.ExpectQuery("SELECT remaining_credits FROM user_profiles").
		WithArgs("user-1").
		WillReturnError(errors.New("connection lost"))

	event := checkoutEvent(t, "evt_1", `{
		"amount_total": 1999,
		"created": 1700000000,
		"metadata": {"userId": "user-1", "priceId": "price_basic", "name": "Basic"},
		"payment_intent": "pi_1"
	}`)
	// The purchase row exists, so the webhook must still succeed.
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
}

func TestCheckoutCompletedDrainsBufferedReceipt(t *testing.T) {
	svc, mock := newBillingService(t)

	paymentDate := time.Unix(1700000000, 0).UTC()
	expectEventMarked(mock, "evt_1", "checkout.session.completed")
	mock.ExpectExec("INSERT INTO purchases").
		WithArgs("user-1", 19.99, paymentDate, "active", 5, nil, sqlmock.AnyArg(), "Basic", paymentDate.AddDate(0, 0, 28)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pending_receipts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT receipt_url FROM pending_receipts").
		WithArgs("pi_1").
		WillReturnRows(sqlmock.NewRows([]string{"receipt_url"}).AddRow("https://receipt"))
	mock.ExpectExec("DELETE FROM pending_receipts").
		WithArgs("pi_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE purchases SET payment_receipt").
		WithArgs("https://receipt", "pi_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT remaining_credits FROM user_profiles").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"remaining_credits"}).AddRow(0))
	mock.ExpectExec("UPDATE user_profiles SET remaining_credits").
		WithArgs(5, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := checkoutEvent(t, "evt_1", `{
		"amount_total": 1999,
		"created": 1700000000,
		"metadata": {"userId": "user-1", "priceId": "price_basic", "name": "Basic"},
		"payment_intent": "pi_1"
	}`)
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestChargeUpdatedAttachesReceipt(t *testing.T) {
	svc, mock := newBillingService(t)

	expectEventMarked(mock, "evt_ch_1", "charge.updated")
	mock.ExpectExec("UPDATE purchases SET payment_receipt").
		WithArgs("https://receipt", "pi_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := chargeEvent(t, "evt_ch_1", `{"payment_intent": "pi_1", "receipt_url": "https://receipt"}`)
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestChargeUpdatedBuffersReceiptWhenPurchaseMissing(t *testing.T) {
	svc, mock := newBillingService(t)

	expectEventMarked(mock, "evt_ch_1", "charge.updated")
	mock.ExpectExec("UPDATE purchases SET payment_receipt").
		WithArgs("https://receipt", "pi_1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pending_receipts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO pending_receipts").
		WithArgs("pi_1", "https://receipt").
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := chargeEvent(t, "evt_ch_1", `{"payment_intent": "pi_1", "receipt_url": "https://receipt"}`)
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestChargeUpdatedMissingFieldsIsNoOp(t *testing.T) {
	svc, mock := newBillingService(t)

	expectEventMarked(mock, "evt_ch_1", "charge.updated")

	event := chargeEvent(t, "evt_ch_1", `{"payment_intent": "pi_1"}`)
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUnhandledEventTypeIsNoOp(t *testing.T) {
	svc, mock := newBillingService(t)

	expectEventMarked(mock, "evt_3", "invoice.paid")

	event := stripe.Event{
		ID:   "evt_3",
		Type: "invoice.paid",
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
