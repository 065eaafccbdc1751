package repositories

import (
	"context"
	"database/sql"
	"time"

	"controlhub/internal/models"
)

type PurchaseRepository struct {
	DB *sql.DB
}

// CreatePurchase inserts one ledger row. The receipt is left NULL on
// purpose: Stripe does not guarantee the receipt URL is available at
// checkout-completion time, it arrives with a later charge.updated event.
func (r *PurchaseRepository) CreatePurchase(ctx context.Context, p models.Purchase) (models.Purchase, error) {
	query := `
        INSERT INTO purchases (user_id, amount_paid, payment_date, status, credit, payment_receipt, payment_intent, plan_name, expiry_date)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	result, err := r.DB.ExecContext(ctx, query,
		p.UserID, p.AmountPaid, p.PaymentDate, p.Status, p.Credit,
		p.PaymentReceipt, p.PaymentIntent, p.PlanName, p.ExpiryDate,
	)
	if err != nil {
		return models.Purchase{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.Purchase{}, err
	}
	p.ID = int(id)
	return p, nil
}

func (r *PurchaseRepository) GetPurchasesByUser(ctx context.Context, userID string) ([]models.Purchase, error) {
	query := `
        SELECT id, user_id, amount_paid, payment_date, status, credit, payment_receipt, payment_intent, plan_name, expiry_date
        FROM purchases
        WHERE user_id = ?
        ORDER BY payment_date DESC
    `
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.AmountPaid, &p.PaymentDate, &p.Status, &p.Credit,
			&p.PaymentReceipt, &p.PaymentIntent, &p.PlanName, &p.ExpiryDate,
		); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (r *PurchaseRepository) GetAllPurchases(ctx context.Context) ([]models.PurchaseWithUser, error) {
	query := `
        SELECT p.id, p.user_id, p.amount_paid, p.payment_date, p.status, p.credit, p.payment_receipt, p.payment_intent, p.plan_name, p.expiry_date,
               u.email, u.full_name
        FROM purchases p
        JOIN user_profiles u ON u.id = p.user_id
        ORDER BY p.payment_date DESC
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []models.PurchaseWithUser
	for rows.Next() {
		var p models.PurchaseWithUser
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.AmountPaid, &p.PaymentDate, &p.Status, &p.Credit,
			&p.PaymentReceipt, &p.PaymentIntent, &p.PlanName, &p.ExpiryDate,
			&p.UserEmail, &p.UserName,
		); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// AttachReceiptByIntent patches the receipt URL onto every ledger row that
// references the payment intent. It returns the number of rows touched so
// the caller can buffer the receipt when the purchase row does not exist yet.
func (r *PurchaseRepository) AttachReceiptByIntent(ctx context.Context, paymentIntent, receiptURL string) (int, error) {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE purchases SET payment_receipt = ? WHERE payment_intent = ?`,
		receiptURL, paymentIntent,
	)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	return int(rowsAffected), err
}

func (r *PurchaseRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE purchases SET status = ? WHERE id = ?`, status, id,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return models.ErrPurchaseNotFound
	}
	return nil
}

// ExpireDue flips active purchases whose expiry date has passed. Granted
// credits are deliberately not reclaimed here.
func (r *PurchaseRepository) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE purchases SET status = ? WHERE status = ? AND expiry_date <= ?`,
		models.PurchaseStatusExpired, models.PurchaseStatusActive, now,
	)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	return int(rowsAffected), err
}
