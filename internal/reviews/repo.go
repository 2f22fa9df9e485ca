package reviews

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/pagination"
)

// Repository persists product reviews.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// Aggregate returns the mean rating rounded to two places and the review count.
func (r *Repository) Aggregate(ctx context.Context, productID uuid.UUID) (decimal.Decimal, int, error) {
	var row struct {
		Total int64
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	if row.Count == 0 {
		return decimal.Zero, 0, nil
	}
	avg := decimal.NewFromInt(row.Total).DivRound(decimal.NewFromInt(row.Count), 2)
	return avg, int(row.Count), nil
}

// ListByProduct pages newest-first with a (created_at, id) keyset cursor.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Review, error) {
	qb := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Review
	err := qb.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
