package errors

import "errors"

var (
	ErrUnknownResource  = errors.New("unknown resource type")
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrUnauthenticated is the Deny outcome for an anonymous principal; the
	// HTTP layer maps it to 401.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is the Deny outcome for an identified principal; the HTTP
	// layer maps it to 403.
	ErrForbidden    = errors.New("forbidden")
	ErrRowNotFound  = errors.New("resource row not found")
	ErrDuplicateRow = errors.New("duplicate resource row")
	ErrInvalidQuery = errors.New("invalid query")
)
