package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"controlhub/internal/models"
	"controlhub/internal/repositories"
)

type stubStorage struct {
	url string
	err error
}

func (s stubStorage) UploadFile(file []byte, fileName, folder, contentType string) (string, error) {
	return s.url, s.err
}

func newDocumentService(t *testing.T) (*DocumentService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return &DocumentService{
		DocumentRepo:     &repositories.DocumentRepository{DB: db},
		UserRepo:         &repositories.UserRepository{DB: db},
		NotificationRepo: &repositories.NotificationRepository{DB: db},
	}, mock
}

func TestCheckUploadAllowed(t *testing.T) {
	svc, mock := newDocumentService(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", models.DocumentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT remaining_credits FROM user_profiles").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"remaining_credits"}).AddRow(3))

	resp, err := svc.CheckUploadAllowed(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CheckUploadAllowed: %v", err)
	}
	if !resp.Allowed {
		t.Errorf("allowed = false, want true (message %q)", resp.Message)
	}
}

func TestCheckUploadAllowedPendingLimitReached(t *testing.T) {
	svc, mock := newDocumentService(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", models.DocumentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(models.PendingDocumentLimit))

	resp, err := svc.CheckUploadAllowed(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CheckUploadAllowed: %v", err)
	}
	if resp.Allowed {
		t.Error("allowed = true, want false")
	}
	if resp.Message != "Max limit reached" {
		t.Errorf("message = %q, want %q", resp.Message, "Max limit reached")
	}
}

func TestCheckUploadAllowedNoCredits(t *testing.T) {
	svc, mock := newDocumentService(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", models.DocumentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT remaining_credits FROM user_profiles").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"remaining_credits"}).AddRow(0))

	resp, err := svc.CheckUploadAllowed(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CheckUploadAllowed: %v", err)
	}
	if resp.Allowed {
		t.Error("allowed = true, want false")
	}
	if resp.Message != "No remaining credits" {
		t.Errorf("message = %q, want %q", resp.Message, "No remaining credits")
	}
}

func TestUploadDocumentRejectedAtPendingLimit(t *testing.T) {
	svc, mock := newDocumentService(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", models.DocumentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(models.PendingDocumentLimit))

	_, err := svc.UploadDocument(context.Background(), "user-1", "Passport", "identity", "passport.pdf", "application/pdf", []byte("data"))
	if err != models.ErrDocumentLimit {
		t.Errorf("err = %v, want ErrDocumentLimit", err)
	}
}

func TestUploadDocumentRejectedWithoutCredits(t *testing.T) {
	svc, mock := newDocumentService(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", models.DocumentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT remaining_credits FROM user_profiles").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"remaining_credits"}).AddRow(0))

	_, err := svc.UploadDocument(context.Background(), "user-1", "Passport", "identity", "passport.pdf", "application/pdf", []byte("data"))
	if err != models.ErrNoCredits {
		t.Errorf("err = %v, want ErrNoCredits", err)
	}
}

func TestUploadDocumentRestoresCreditWhenInsertFails(t *testing.T) {
	svc, mock := newDocumentService(t)
	svc.Storage = stubStorage{url: "https://bucket/documents/passport.pdf"}

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", models.DocumentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT remaining_credits FROM user_profiles").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"remaining_credits"}).AddRow(1))
	mock.ExpectExec("UPDATE user_profiles SET remaining_credits").
		WithArgs(sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnError(errors.New("connection lost"))
	// The consumed credit must be given back.
	mock.ExpectExec(`UPDATE user_profiles SET remaining_credits = remaining_credits \+ 1`).
		WithArgs(sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.UploadDocument(context.Background(), "user-1", "Passport", "identity", "passport.pdf", "application/pdf", []byte("data"))
	if err == nil {
		t.Fatal("expected error from failed insert, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newDocumentService(t)

	_, err := svc.UpdateStatus(context.Background(), "doc-1", "archived", nil)
	if err != models.ErrInvalidStatus {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}
