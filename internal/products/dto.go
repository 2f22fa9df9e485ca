package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercantile/storefront/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID                  uuid.UUID `json:"id"`
	SKU                 string    `json:"sku"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Category            string    `json:"category"`
	Thumbnail           string    `json:"thumbnail"`
	Price               string    `json:"price"`
	DiscountPercentage  string    `json:"discount_percentage"`
	DiscountedUnitPrice string    `json:"discounted_price"`
	Stock               int       `json:"stock"`
	IsActive            bool      `json:"is_active"`
	RatingAverage       string    `json:"rating_average"`
	RatingCount         int       `json:"rating_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p *models.Product) *ProductDTO {
	discounted := p.Price.Mul(hundred.Sub(p.DiscountPercentage)).Div(hundred)
	return &ProductDTO{
		ID:                  p.ID,
		SKU:                 p.SKU,
		Title:               p.Title,
		Description:         p.Description,
		Category:            p.Category,
		Thumbnail:           p.Thumbnail,
		Price:               p.Price.StringFixed(2),
		DiscountPercentage:  p.DiscountPercentage.StringFixed(2),
		DiscountedUnitPrice: discounted.StringFixed(2),
		Stock:               p.Stock,
		IsActive:            p.IsActive,
		RatingAverage:       p.RatingAverage.StringFixed(2),
		RatingCount:         p.RatingCount,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
