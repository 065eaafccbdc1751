package repositories

import (
	"context"
	"database/sql"
	"time"

	"controlhub/internal/models"
)

type NotificationRepository struct {
	DB *sql.DB
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.CreatedAt = time.Now()
	result, err := r.DB.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, body, is_read, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Body, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return models.Notification{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.Notification{}, err
	}
	n.ID = int(id)
	return n, nil
}

func (r *NotificationRepository) GetNotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, title, body, is_read, created_at FROM notifications WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int, userID string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrNoRecord
	}
	return nil
}
