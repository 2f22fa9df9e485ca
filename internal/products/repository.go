package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/enums"
	"github.com/mercantile/storefront/pkg/pagination"
)

// Repository persists catalog products.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a product regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update writes every column of an existing product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by ID and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// UpdateRating stores the aggregate review score for a product.
func (r *Repository) UpdateRating(ctx context.Context, id uuid.UUID, average decimal.Decimal, count int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating_average": average,
			"rating_count":   count,
		}).Error
}

// List returns one page of products matching filters plus the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters, page pagination.Page) ([]models.Product, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Product{})

	if !filters.IncludeInactive {
		qb = qb.Where("is_active = ?", true)
	}
	if category := strings.TrimSpace(filters.Category); category != "" {
		qb = qb.Where("category = ?", category)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		qb = qb.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	qb = qb.Session(&gorm.Session{})
	var total int64
	if err := qb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filters.Sort {
	case enums.ProductSortPriceAsc:
		qb = qb.Order("price ASC")
	case enums.ProductSortPriceDesc:
		qb = qb.Order("price DESC")
	case enums.ProductSortRating:
		qb = qb.Order("rating_average DESC").Order("rating_count DESC")
	}
	qb = qb.Order("created_at DESC").Order("id DESC")

	var rows []models.Product
	if err := qb.Offset(page.Offset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
