package ports

import (
	"context"

	"github.com/99minutos/auth-portal/internal/core/domain"
)

// AuthAPI verifies credentials against the authentication backend.
// Failures should carry a *domain.APIError so the login page can show the
// backend's own wording.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.User, error)
}
