package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotConfigured      = errors.New("database not configured")
	ErrEmailNotConfigured = errors.New("email service not configured")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotificationFailed = errors.New("booking notification failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// ValidationError is a client input problem. Its message is safe to return
// to the caller as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// TransitionError reports a status change the workflow does not allow.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return "Invalid status transition from " + e.From + " to " + e.To
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
