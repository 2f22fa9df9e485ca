package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/pkg/enums"
)

// Order is the durable record created when a checkout session is paid.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CheckoutSessionID uuid.UUID         `gorm:"column:checkout_session_id;type:uuid;not null;uniqueIndex"`
	UserID            *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	SessionKey        string            `gorm:"column:session_key;not null"`
	Status            enums.OrderStatus `gorm:"column:status;not null;default:'paid'"`
	Currency          string            `gorm:"column:currency;not null"`
	PromoCode         *string           `gorm:"column:promo_code"`
	SubtotalCents     int64             `gorm:"column:subtotal_cents;not null"`
	DiscountCents     int64             `gorm:"column:discount_cents;not null"`
	DeliveryFeeCents  int64             `gorm:"column:delivery_fee_cents;not null"`
	TotalCents        int64             `gorm:"column:total_cents;not null"`
	Items             []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLineItem captures each ledger row as it was when the order was paid.
type OrderLineItem struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title              string    `gorm:"column:title;not null"`
	Category           string    `gorm:"column:category;not null"`
	UnitPriceCents     int64     `gorm:"column:unit_price_cents;not null"`
	DiscountPercentage string    `gorm:"column:discount_percentage;not null"`
	Quantity           int       `gorm:"column:quantity;not null"`
	LineTotalCents     int64     `gorm:"column:line_total_cents;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (li *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}
