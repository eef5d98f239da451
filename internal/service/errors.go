package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrQuoteNotConvertible is returned when converting a quote that is not accepted
	ErrQuoteNotConvertible = errors.New("quote is not in an accepted state")

	// ErrInvalidStatusTransition is returned when a lifecycle transition is not allowed
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrNoDefaultTemplate is returned when an agreement conversion has no template to use
	ErrNoDefaultTemplate = errors.New("no agreement template configured")

	// ErrTemplateInUse is returned when deleting a template that generated agreements
	ErrTemplateInUse = errors.New("template has generated agreements and cannot be deleted")

	// ErrTemplateInvalid is returned when template variables fail validation
	ErrTemplateInvalid = errors.New("template variables failed validation")

	// ErrInvalidNumberingFormat is returned when a numbering format cannot issue numbers
	ErrInvalidNumberingFormat = errors.New("invalid numbering format")

	// ErrClientHasQuotes is returned when deleting a client that still owns quotes
	ErrClientHasQuotes = errors.New("client has quotes and cannot be deleted")
)
