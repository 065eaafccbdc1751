package models

import "time"

const (
	DocumentStatusPending  = "pending"
	DocumentStatusApproved = "approved"
	DocumentStatusRejected = "rejected"
)

// PendingDocumentLimit caps how many documents a user may have in review
// at the same time, independently of the credit balance.
const PendingDocumentLimit = 2

type Document struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	DocType      string     `json:"doc_type"`
	FileURL      string     `json:"file_url"`
	Status       string     `json:"status"`
	RejectReason *string    `json:"reject_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type DocumentStatusUpdate struct {
	Status       string  `json:"status"`
	RejectReason *string `json:"reject_reason,omitempty"`
}

type DocumentLimitResponse struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
}
