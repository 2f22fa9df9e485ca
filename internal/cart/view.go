package cart

import "github.com/google/uuid"

// ViewItem is a ledger row with derived prices, formatted for clients.
type ViewItem struct {
	ProductID           uuid.UUID `json:"product_id"`
	Title               string    `json:"title"`
	Category            string    `json:"category"`
	Image               string    `json:"image"`
	UnitPrice           string    `json:"unit_price"`
	DiscountPercentage  string    `json:"discount_percentage"`
	DiscountedUnitPrice string    `json:"discounted_unit_price"`
	Quantity            int       `json:"quantity"`
	LineTotal           string    `json:"line_total"`
	AvailableStock      *int      `json:"available_stock,omitempty"`
}

// View is the client representation of a ledger. Money is fixed to two decimals.
type View struct {
	Items          []ViewItem `json:"items"`
	PromoCode      *string    `json:"promo_code"`
	ItemCount      int        `json:"item_count"`
	Subtotal       string     `json:"subtotal"`
	DiscountAmount string     `json:"discount_amount"`
	DeliveryFee    string     `json:"delivery_fee"`
	Total          string     `json:"total"`
}

// NewView renders a ledger.
func NewView(l *Ledger) *View {
	items := l.Items()
	view := &View{
		Items:          make([]ViewItem, 0, len(items)),
		ItemCount:      l.ItemCount(),
		Subtotal:       l.Subtotal().StringFixed(2),
		DiscountAmount: l.DiscountAmount().StringFixed(2),
		DeliveryFee:    l.EffectiveDeliveryFee().StringFixed(2),
		Total:          l.Total().StringFixed(2),
	}
	if code := l.PromoCode(); code != "" {
		view.PromoCode = &code
	}
	for _, item := range items {
		view.Items = append(view.Items, ViewItem{
			ProductID:           item.ProductID,
			Title:               item.Title,
			Category:            item.Category,
			Image:               item.Image,
			UnitPrice:           item.UnitPrice.StringFixed(2),
			DiscountPercentage:  item.DiscountPercentage.StringFixed(2),
			DiscountedUnitPrice: item.DiscountedUnitPrice().StringFixed(2),
			Quantity:            item.Quantity,
			LineTotal:           item.LineTotal().StringFixed(2),
			AvailableStock:      item.AvailableStock,
		})
	}
	return view
}
