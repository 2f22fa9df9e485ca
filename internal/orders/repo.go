package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/enums"
	"github.com/mercantile/storefront/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateWithItems inserts the order and its line items. Callers that need
// atomicity with other writes pass a tx-bound repository.
func (r *repository) CreateWithItems(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByCheckoutSessionID(ctx context.Context, checkoutSessionID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("checkout_session_id = ?", checkoutSessionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Page) ([]models.Order, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID), page)
}

func (r *repository) ListAll(ctx context.Context, status *enums.OrderStatus, page pagination.Page) ([]models.Order, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{})
	if status != nil {
		qb = qb.Where("status = ?", *status)
	}
	return r.list(ctx, qb, page)
}

func (r *repository) list(ctx context.Context, qb *gorm.DB, page pagination.Page) ([]models.Order, int64, error) {
	qb = qb.Session(&gorm.Session{})
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Order
	err := qb.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
