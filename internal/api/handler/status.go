package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/99minutos/auth-portal/internal/core/domain"
)

// StatusOf maps a page or collaborator error to the HTTP status of the
// response that shows it.
func StatusOf(err error) int {
	var apiErr *domain.APIError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest:
		return apiErr.Status
	}
	return http.StatusBadGateway
}
