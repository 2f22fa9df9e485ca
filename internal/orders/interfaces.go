package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/enums"
	"github.com/mercantile/storefront/pkg/pagination"
)

// Repository defines persistence operations for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateWithItems(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCheckoutSessionID(ctx context.Context, checkoutSessionID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Order, int64, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, page pagination.Page) ([]models.Order, int64, error)
}
