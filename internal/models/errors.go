package models

import "errors"

var (
	ErrNoRecord           = errors.New("models: no matching record found")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicateEmail     = errors.New("models: duplicate email")
	ErrDuplicatePhone     = errors.New("models: duplicate phone number")
	ErrUserNotFound       = errors.New("models: user not found")
	ErrDocumentNotFound   = errors.New("models: document not found")
	ErrPurchaseNotFound   = errors.New("models: purchase not found")
	ErrNoCredits          = errors.New("models: no remaining credits")
	ErrDocumentLimit      = errors.New("models: pending document limit reached")
	ErrCodeExpired        = errors.New("models: verification code expired or invalid")
	ErrInvalidStatus      = errors.New("models: invalid status value")
)
