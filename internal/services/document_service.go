package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"controlhub/internal/models"
	"controlhub/internal/repositories"
)

// FileStorage is the slice of the object store the document flow needs.
// Satisfied by utils.S3Storage.
type FileStorage interface {
	UploadFile(file []byte, fileName, folder, contentType string) (string, error)
}

type DocumentService struct {
	DocumentRepo     *repositories.DocumentRepository
	UserRepo         *repositories.UserRepository
	NotificationRepo *repositories.NotificationRepository
	Storage          FileStorage
	FCM              *FCMService

	// Notify pushes a notification to the user's open websocket, if any.
	// Wired by the application, nil in tests.
	Notify func(models.Notification)
}

// CheckUploadAllowed reports whether the user may upload another document
// right now: fewer than the pending cap in review and at least one credit.
func (s *DocumentService) CheckUploadAllowed(ctx context.Context, userID string) (models.DocumentLimitResponse, error) {
	pending, err := s.DocumentRepo.CountPendingByUser(ctx, userID)
	if err != nil {
		return models.DocumentLimitResponse{}, err
	}
	if pending >= models.PendingDocumentLimit {
		return models.DocumentLimitResponse{Allowed: false, Message: "Max limit reached"}, nil
	}
	credits, err := s.UserRepo.GetRemainingCredits(ctx, userID)
	if err != nil {
		return models.DocumentLimitResponse{}, err
	}
	if credits <= 0 {
		return models.DocumentLimitResponse{Allowed: false, Message: "No remaining credits"}, nil
	}
	return models.DocumentLimitResponse{Allowed: true}, nil
}

// UploadDocument stores the file and creates a pending review record.
// One credit is consumed per upload.
func (s *DocumentService) UploadDocument(ctx context.Context, userID, title, docType, fileName, contentType string, data []byte) (models.Document, error) {
	pending, err := s.DocumentRepo.CountPendingByUser(ctx, userID)
	if err != nil {
		return models.Document{}, err
	}
	if pending >= models.PendingDocumentLimit {
		return models.Document{}, models.ErrDocumentLimit
	}
	credits, err := s.UserRepo.GetRemainingCredits(ctx, userID)
	if err != nil {
		return models.Document{}, err
	}
	if credits <= 0 {
		return models.Document{}, models.ErrNoCredits
	}

	fileURL, err := s.Storage.UploadFile(data, fmt.Sprintf("%s_%s", uuid.NewString(), fileName), "documents", contentType)
	if err != nil {
		return models.Document{}, err
	}

	// Concurrent uploads race on the balance; the conditional UPDATE is
	// the authoritative check.
	if err := s.UserRepo.ConsumeCredit(ctx, userID); err != nil {
		return models.Document{}, err
	}

	doc, err := s.DocumentRepo.CreateDocument(ctx, models.Document{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		DocType: docType,
		FileURL: fileURL,
		Status:  models.DocumentStatusPending,
	})
	if err != nil {
		// The credit was already taken; give it back so a failed insert
		// does not charge the user for nothing.
		if rerr := s.UserRepo.RestoreCredit(ctx, userID); rerr != nil {
			log.Printf("document upload: failed to restore credit for user %s: %v", userID, rerr)
		}
		return models.Document{}, err
	}
	return doc, nil
}

func (s *DocumentService) GetDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error) {
	return s.DocumentRepo.GetDocumentsByUser(ctx, userID)
}

func (s *DocumentService) GetDocuments(ctx context.Context, status string) ([]models.Document, error) {
	return s.DocumentRepo.GetDocuments(ctx, status)
}

// UpdateStatus applies the admin review decision and notifies the owner
// through every channel that is wired (notification row, websocket, push).
func (s *DocumentService) UpdateStatus(ctx context.Context, docID, status string, rejectReason *string) (models.Document, error) {
	if status != models.DocumentStatusApproved && status != models.DocumentStatusRejected {
		return models.Document{}, models.ErrInvalidStatus
	}
	if status != models.DocumentStatusRejected {
		rejectReason = nil
	}

	doc, err := s.DocumentRepo.UpdateStatus(ctx, docID, status, rejectReason)
	if err != nil {
		return models.Document{}, err
	}

	title := "Document approved"
	body := fmt.Sprintf("Your document %q has been approved.", doc.Title)
	if status == models.DocumentStatusRejected {
		title = "Document rejected"
		body = fmt.Sprintf("Your document %q has been rejected.", doc.Title)
		if rejectReason != nil && *rejectReason != "" {
			body = fmt.Sprintf("%s Reason: %s", body, *rejectReason)
		}
	}

	notification, err := s.NotificationRepo.CreateNotification(ctx, models.Notification{
		UserID: doc.UserID,
		Title:  title,
		Body:   body,
	})
	if err != nil {
		log.Printf("document review: failed to save notification for user %s: %v", doc.UserID, err)
	} else if s.Notify != nil {
		s.Notify(notification)
	}

	user, err := s.UserRepo.GetUserByID(ctx, doc.UserID)
	if err == nil && user.FCMToken != nil {
		_ = s.FCM.Send(ctx, *user.FCMToken, title, body)
	}

	return doc, nil
}
