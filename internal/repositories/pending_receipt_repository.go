package repositories

import (
	"context"
	"database/sql"
	"sync"
)

// PendingReceiptRepository buffers receipt URLs from charge.updated events
// that arrived before the matching purchase row existed. The checkout
// handler drains the buffer right after inserting the purchase.
type PendingReceiptRepository struct {
	DB *sql.DB

	once sync.Once
	err  error
}

func NewPendingReceiptRepository(db *sql.DB) *PendingReceiptRepository {
	return &PendingReceiptRepository{DB: db}
}

func (r *PendingReceiptRepository) ensureSchema(ctx context.Context) error {
	r.once.Do(func() {
		const ddl = `
CREATE TABLE IF NOT EXISTS pending_receipts (
    payment_intent VARCHAR(255) NOT NULL,
    receipt_url TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (payment_intent)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`
		_, r.err = r.DB.ExecContext(ctx, ddl)
	})
	return r.err
}

func (r *PendingReceiptRepository) Store(ctx context.Context, paymentIntent, receiptURL string) error {
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO pending_receipts (payment_intent, receipt_url)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE receipt_url = VALUES(receipt_url)
`, paymentIntent, receiptURL)
	return err
}

// Take returns the buffered receipt URL for the payment intent, if any,
// and removes it.
func (r *PendingReceiptRepository) Take(ctx context.Context, paymentIntent string) (string, bool, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return "", false, err
	}
	var receiptURL string
	err := r.DB.QueryRowContext(ctx,
		`SELECT receipt_url FROM pending_receipts WHERE payment_intent = ?`, paymentIntent,
	).Scan(&receiptURL)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if _, err := r.DB.ExecContext(ctx,
		`DELETE FROM pending_receipts WHERE payment_intent = ?`, paymentIntent,
	); err != nil {
		return "", false, err
	}
	return receiptURL, true, nil
}
