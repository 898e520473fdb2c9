package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSubmitInProgress   = errors.New("login already in progress")
	ErrInvalidInput       = errors.New("invalid login input")
)

// APIError is the failure shape reported by the backend collaborators.
// Message is the human-readable text from the response body and may be empty.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("api error (status %d)", e.Status)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// MessageOf extracts the collaborator-provided message from err, or returns
// fallback when err carries none.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
