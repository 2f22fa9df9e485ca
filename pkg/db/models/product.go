package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing; price and discount feed cart snapshots.
type Product struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU                string          `gorm:"column:sku;not null;uniqueIndex"`
	Title              string          `gorm:"column:title;not null"`
	Description        string          `gorm:"column:description;not null;default:''"`
	Category           string          `gorm:"column:category;not null;index"`
	Thumbnail          string          `gorm:"column:thumbnail;not null;default:''"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0"`
	Stock              int             `gorm:"column:stock;not null;default:0"`
	IsActive           bool            `gorm:"column:is_active;not null"`
	RatingAverage      decimal.Decimal `gorm:"column:rating_average;type:numeric(3,2);not null;default:0"`
	RatingCount        int             `gorm:"column:rating_count;not null;default:0"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
