package repositories

import (
	"context"
	"database/sql"
	"time"

	"controlhub/internal/models"
)

type DocumentRepository struct {
	DB *sql.DB
}

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc models.Document) (models.Document, error) {
	query := `
        INSERT INTO documents (id, user_id, title, doc_type, file_url, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = &doc.CreatedAt
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID, doc.UserID, doc.Title, doc.DocType, doc.FileURL, doc.Status,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (r *DocumentRepository) GetDocumentByID(ctx context.Context, id string) (models.Document, error) {
	var doc models.Document
	query := `
        SELECT id, user_id, title, doc_type, file_url, status, reject_reason, created_at, updated_at
        FROM documents
        WHERE id = ?
    `
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.UserID, &doc.Title, &doc.DocType, &doc.FileURL, &doc.Status,
		&doc.RejectReason, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Document{}, models.ErrDocumentNotFound
	}
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (r *DocumentRepository) GetDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error) {
	query := `
        SELECT id, user_id, title, doc_type, file_url, status, reject_reason, created_at, updated_at
        FROM documents
        WHERE user_id = ?
        ORDER BY created_at DESC
    `
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// GetDocuments lists all documents, optionally filtered by status.
func (r *DocumentRepository) GetDocuments(ctx context.Context, status string) ([]models.Document, error) {
	query := `
        SELECT id, user_id, title, doc_type, file_url, status, reject_reason, created_at, updated_at
        FROM documents
    `
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func scanDocuments(rows *sql.Rows) ([]models.Document, error) {
	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.UserID, &doc.Title, &doc.DocType, &doc.FileURL, &doc.Status,
			&doc.RejectReason, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) CountPendingByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE user_id = ? AND status = ?`,
		userID, models.DocumentStatusPending,
	).Scan(&count)
	return count, err
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id, status string, rejectReason *string) (models.Document, error) {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE documents SET status = ?, reject_reason = ?, updated_at = ? WHERE id = ?`,
		status, rejectReason, time.Now(), id,
	)
	if err != nil {
		return models.Document{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.Document{}, err
	}
	if rowsAffected == 0 {
		return models.Document{}, models.ErrDocumentNotFound
	}
	return r.GetDocumentByID(ctx, id)
}
