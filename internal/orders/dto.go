package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/enums"
	"github.com/mercantile/storefront/pkg/types"
)

// LineItemDTO is one purchased row.
type LineItemDTO struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"product_id"`
	Title              string    `json:"title"`
	Category           string    `json:"category"`
	UnitPriceCents     int64     `json:"unit_price_cents"`
	DiscountPercentage string    `json:"discount_percentage"`
	Quantity           int       `json:"quantity"`
	LineTotalCents     int64     `json:"line_total_cents"`
}

// OrderDTO is the client view of an order.
type OrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	CheckoutSessionID uuid.UUID         `json:"checkout_session_id"`
	UserID            *uuid.UUID        `json:"user_id,omitempty"`
	Status            enums.OrderStatus `json:"status"`
	Currency          string            `json:"currency"`
	PromoCode         *string           `json:"promo_code"`
	SubtotalCents     int64             `json:"subtotal_cents"`
	DiscountCents     int64             `json:"discount_cents"`
	DeliveryFeeCents  int64             `json:"delivery_fee_cents"`
	TotalCents        int64             `json:"total_cents"`
	Items             []LineItemDTO     `json:"items"`
	CreatedAt         time.Time         `json:"created_at"`
}

// OrderList is one page of orders.
type OrderList struct {
	Orders []OrderDTO     `json:"orders"`
	Meta   types.PageMeta `json:"meta"`
}

// NewOrderDTO maps the persisted order.
func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                order.ID,
		CheckoutSessionID: order.CheckoutSessionID,
		UserID:            order.UserID,
		Status:            order.Status,
		Currency:          order.Currency,
		PromoCode:         order.PromoCode,
		SubtotalCents:     order.SubtotalCents,
		DiscountCents:     order.DiscountCents,
		DeliveryFeeCents:  order.DeliveryFeeCents,
		TotalCents:        order.TotalCents,
		Items:             make([]LineItemDTO, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, LineItemDTO{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			Title:              item.Title,
			Category:           item.Category,
			UnitPriceCents:     item.UnitPriceCents,
			DiscountPercentage: item.DiscountPercentage,
			Quantity:           item.Quantity,
			LineTotalCents:     item.LineTotalCents,
		})
	}
	return dto
}
