package services

import (
	"context"

	"controlhub/internal/models"
	"controlhub/internal/repositories"
)

type NotificationService struct {
	NotificationRepo *repositories.NotificationRepository
}

func (s *NotificationService) GetNotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.NotificationRepo.GetNotificationsByUser(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id int, userID string) error {
	return s.NotificationRepo.MarkRead(ctx, id, userID)
}
