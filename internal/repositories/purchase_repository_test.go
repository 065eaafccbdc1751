package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"controlhub/internal/models"
)

func TestCreatePurchase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := PurchaseRepository{DB: db}

	paymentDate := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	intent := "pi_123"
	mock.ExpectExec("INSERT INTO purchases").
		WithArgs("user-1", 19.99, paymentDate, models.PurchaseStatusActive, 15, nil, &intent, "Standard", paymentDate.AddDate(0, 0, 28)).
		WillReturnResult(sqlmock.NewResult(7, 1))

	purchase, err := repo.CreatePurchase(context.Background(), models.Purchase{
		UserID:        "user-1",
		AmountPaid:    19.99,
		PaymentDate:   paymentDate,
		Status:        models.PurchaseStatusActive,
		Credit:        15,
		PaymentIntent: &intent,
		PlanName:      "Standard",
		ExpiryDate:    paymentDate.AddDate(0, 0, 28),
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if purchase.ID != 7 {
		t.Errorf("purchase ID = %d, want 7", purchase.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAttachReceiptByIntent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := PurchaseRepository{DB: db}

	mock.ExpectExec("UPDATE purchases SET payment_receipt").
		WithArgs("https://receipt", "pi_123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	matched, err := repo.AttachReceiptByIntent(context.Background(), "pi_123", "https://receipt")
	if err != nil {
		t.Fatalf("AttachReceiptByIntent: %v", err)
	}
	if matched != 1 {
		t.Errorf("matched = %d, want 1", matched)
	}
}

func TestAttachReceiptByIntentNoMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := PurchaseRepository{DB: db}

	mock.ExpectExec("UPDATE purchases SET payment_receipt").
		WithArgs("https://receipt", "pi_unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))

	matched, err := repo.AttachReceiptByIntent(context.Background(), "pi_unknown", "https://receipt")
	if err != nil {
		t.Fatalf("AttachReceiptByIntent: %v", err)
	}
	if matched != 0 {
		t.Errorf("matched = %d, want 0", matched)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := PurchaseRepository{DB: db}

	mock.ExpectExec("UPDATE purchases SET status").
		WithArgs(models.PurchaseStatusCancelled, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), 99, models.PurchaseStatusCancelled)
	if err != models.ErrPurchaseNotFound {
		t.Errorf("err = %v, want ErrPurchaseNotFound", err)
	}
}

func TestExpireDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := PurchaseRepository{DB: db}

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE purchases SET status").
		WithArgs(models.PurchaseStatusExpired, models.PurchaseStatusActive, now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	expired, err := repo.ExpireDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if expired != 3 {
		t.Errorf("expired = %d, want 3", expired)
	}
}
