package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// WebhookEventRepository records Stripe event ids that have already been
// applied so redelivered events are skipped instead of double-crediting.
type WebhookEventRepository struct {
	DB *sql.DB

	once sync.Once
	err  error
}

func NewWebhookEventRepository(db *sql.DB) *WebhookEventRepository {
	return &WebhookEventRepository{DB: db}
}

func (r *WebhookEventRepository) ensureSchema(ctx context.Context) error {
	r.once.Do(func() {
		const ddl = `
CREATE TABLE IF NOT EXISTS webhook_events (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    event_id VARCHAR(255) NOT NULL,
    event_type VARCHAR(100) NOT NULL DEFAULT '',
    received_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uniq_event_id (event_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`
		_, r.err = r.DB.ExecContext(ctx, ddl)
	})
	return r.err
}

// MarkProcessed records the event id and reports whether this delivery is
// the first one. A duplicate insert is a no-op thanks to the unique key,
// and MySQL reports zero affected rows for it.
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return false, err
	}
	if eventID == "" {
		return false, fmt.Errorf("event_id is required")
	}
	result, err := r.DB.ExecContext(ctx, `
INSERT INTO webhook_events (event_id, event_type)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE event_id = event_id
`, eventID, eventType)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// Forget removes a processed marker. Used when the purchase insert fails
// after the marker was written, so Stripe's redelivery can retry the event.
func (r *WebhookEventRepository) Forget(ctx context.Context, eventID string) error {
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, `DELETE FROM webhook_events WHERE event_id = ?`, eventID)
	return err
}
