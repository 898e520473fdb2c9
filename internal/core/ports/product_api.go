package ports

import (
	"context"

	"github.com/99minutos/auth-portal/internal/core/domain"
)

// ProductAPI lists the catalog shown on the dashboard.
type ProductAPI interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
}
