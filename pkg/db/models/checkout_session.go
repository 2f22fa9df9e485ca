package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/pkg/enums"
)

// CheckoutLine freezes one ledger row at checkout start.
type CheckoutLine struct {
	ProductID          uuid.UUID       `json:"product_id"`
	Title              string          `json:"title"`
	Category           string          `json:"category"`
	Image              string          `json:"image"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Quantity           int             `json:"quantity"`
}

// CheckoutSession links a provider checkout session to the ledger snapshot it was created from.
type CheckoutSession struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProviderSessionID string               `gorm:"column:provider_session_id;not null;uniqueIndex"`
	SessionKey        string               `gorm:"column:session_key;not null;index"`
	UserID            *uuid.UUID           `gorm:"column:user_id;type:uuid"`
	Status            enums.CheckoutStatus `gorm:"column:status;not null;default:'pending'"`
	Currency          string               `gorm:"column:currency;not null"`
	PromoCode         *string              `gorm:"column:promo_code"`
	Lines             []CheckoutLine       `gorm:"column:lines;type:jsonb;serializer:json;not null"`
	SubtotalCents     int64                `gorm:"column:subtotal_cents;not null"`
	DiscountCents     int64                `gorm:"column:discount_cents;not null"`
	DeliveryFeeCents  int64                `gorm:"column:delivery_fee_cents;not null"`
	TotalCents        int64                `gorm:"column:total_cents;not null"`
	CheckoutURL       string               `gorm:"column:checkout_url;not null;default:''"`
	CompletedAt       *time.Time           `gorm:"column:completed_at"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CheckoutSession) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
