package cart

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/mercantile/storefront/pkg/errors"
)

var (
	hundred = decimal.NewFromInt(100)

	// ErrInsufficientStock is wrapped by the conflict returned from AddItem.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductSnapshot is the catalog's point-in-time view of a product.
// Stock is nil when the catalog does not track it.
type ProductSnapshot struct {
	ProductID          uuid.UUID
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Stock              *int
	Title              string
	Category           string
	Thumbnail          string
}

// LineItem is one product's presence in a ledger. Price fields are frozen at add time.
type LineItem struct {
	ProductID          uuid.UUID       `json:"product_id"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Quantity           int             `json:"quantity"`
	AvailableStock     *int            `json:"available_stock,omitempty"`
	Category           string          `json:"category"`
	Title              string          `json:"title"`
	Image              string          `json:"image"`
}

// DiscountedUnitPrice is unitPrice * (1 - discountPercentage/100).
func (li LineItem) DiscountedUnitPrice() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(1).Sub(li.DiscountPercentage.Div(hundred)))
}

// LineTotal is the discounted unit price times quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.DiscountedUnitPrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Ledger is the cart aggregate for one shopping session. It is not safe for
// concurrent use; each request loads its own copy.
type Ledger struct {
	items          []LineItem
	promoCode      string
	discountAmount decimal.Decimal
	deliveryFee    decimal.Decimal
}

// NewLedger returns an empty ledger charging the given flat delivery fee.
func NewLedger(deliveryFee decimal.Decimal) *Ledger {
	return &Ledger{deliveryFee: deliveryFee}
}

// AddItem merges quantity into an existing row or appends a new one. Quantities
// below 1 count as 1. When the snapshot knows the stock and the merged quantity
// would exceed it, the ledger is left untouched and a conflict is returned.
func (l *Ledger) AddItem(p ProductSnapshot, quantity int) error {
	quantity = max(1, quantity)

	idx := l.indexOf(p.ProductID)
	existing := 0
	if idx >= 0 {
		existing = l.items[idx].Quantity
	}
	if p.Stock != nil && existing+quantity > *p.Stock {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrInsufficientStock,
			fmt.Sprintf("only %d of %q available", *p.Stock, p.Title)).
			WithDetails(map[string]any{
				"product_id": p.ProductID.String(),
				"requested":  existing + quantity,
				"available":  *p.Stock,
			})
	}

	if idx >= 0 {
		item := &l.items[idx]
		item.Quantity += quantity
		item.AvailableStock = copyInt(p.Stock)
	} else {
		l.items = append(l.items, LineItem{
			ProductID:          p.ProductID,
			UnitPrice:          p.Price,
			DiscountPercentage: p.DiscountPercentage,
			Quantity:           quantity,
			AvailableStock:     copyInt(p.Stock),
			Category:           p.Category,
			Title:              p.Title,
			Image:              p.Thumbnail,
		})
	}
	l.recomputeDiscount()
	return nil
}

// RemoveItem deletes the row for productID if present.
func (l *Ledger) RemoveItem(productID uuid.UUID) {
	idx := l.indexOf(productID)
	if idx < 0 {
		return
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	l.recomputeDiscount()
}

// UpdateQuantity sets the row's quantity, floored at 1. It never removes the row.
func (l *Ledger) UpdateQuantity(productID uuid.UUID, quantity int) {
	idx := l.indexOf(productID)
	if idx < 0 {
		return
	}
	l.items[idx].Quantity = max(1, quantity)
	l.recomputeDiscount()
}

// ApplyPromoCode replaces the active promo. Unknown codes clear it.
func (l *Ledger) ApplyPromoCode(code string) {
	promo, ok := LookupPromo(code)
	if !ok {
		l.promoCode = ""
		l.discountAmount = decimal.Zero
		return
	}
	l.promoCode = promo.Code
	l.recomputeDiscount()
}

// Clear empties the ledger and drops the promo.
func (l *Ledger) Clear() {
	l.items = nil
	l.promoCode = ""
	l.discountAmount = decimal.Zero
}

func (l *Ledger) recomputeDiscount() {
	promo, ok := promoTable[l.promoCode]
	if !ok || promo.Effect != PromoEffectPercentOff {
		l.discountAmount = decimal.Zero
		return
	}
	l.discountAmount = l.Subtotal().Mul(promo.Percent).Div(hundred)
}

// Items returns a copy of the rows in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	for i, item := range l.items {
		item.AvailableStock = copyInt(item.AvailableStock)
		out[i] = item
	}
	return out
}

// Item returns the row for productID.
func (l *Ledger) Item(productID uuid.UUID) (LineItem, bool) {
	idx := l.indexOf(productID)
	if idx < 0 {
		return LineItem{}, false
	}
	item := l.items[idx]
	item.AvailableStock = copyInt(item.AvailableStock)
	return item, true
}

func (l *Ledger) PromoCode() string {
	return l.promoCode
}

func (l *Ledger) DiscountAmount() decimal.Decimal {
	return l.discountAmount
}

// DeliveryFee is the configured flat fee, before promos.
func (l *Ledger) DeliveryFee() decimal.Decimal {
	return l.deliveryFee
}

// EffectiveDeliveryFee is zero while a free-shipping promo is active.
func (l *Ledger) EffectiveDeliveryFee() decimal.Decimal {
	if promo, ok := promoTable[l.promoCode]; ok && promo.Effect == PromoEffectFreeShipping {
		return decimal.Zero
	}
	return l.deliveryFee
}

// Subtotal sums discounted line totals.
func (l *Ledger) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range l.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// Total is max(0, subtotal - discount + effective delivery fee).
func (l *Ledger) Total() decimal.Decimal {
	total := l.Subtotal().Sub(l.discountAmount).Add(l.EffectiveDeliveryFee())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ItemCount is the number of units across all rows.
func (l *Ledger) ItemCount() int {
	count := 0
	for _, item := range l.items {
		count += item.Quantity
	}
	return count
}

func (l *Ledger) IsEmpty() bool {
	return len(l.items) == 0
}

// Snapshot returns a deep copy that later mutations of l do not affect.
func (l *Ledger) Snapshot() *Ledger {
	return &Ledger{
		items:          l.Items(),
		promoCode:      l.promoCode,
		discountAmount: l.discountAmount,
		deliveryFee:    l.deliveryFee,
	}
}

func (l *Ledger) indexOf(productID uuid.UUID) int {
	for i := range l.items {
		if l.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
