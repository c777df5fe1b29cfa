package domain

import "errors"

// Sentinel errors for the application. Callers classify with errors.Is; the
// HTTP and ws layers map them to status codes and error frames.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNotFound            = errors.New("resource not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrDeliveryFailed      = errors.New("delivery failed")

	// ErrConflict is returned by ConversationRepository.Create when the
	// participant pair already has a conversation.
	ErrConflict = errors.New("resource already exists")
)
