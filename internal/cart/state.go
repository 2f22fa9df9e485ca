package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State is the persisted form of a ledger. Decimals serialize as strings so a
// save/load round trip is exact.
type State struct {
	Items          []LineItem      `json:"items"`
	PromoCode      string          `json:"promo_code,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// State captures the ledger for a store.
func (l *Ledger) State() State {
	return State{
		Items:          l.Items(),
		PromoCode:      l.promoCode,
		DiscountAmount: l.discountAmount,
	}
}

// FromState rebuilds a ledger from validated state. The discount is derived
// again from items and promo rather than trusted.
func FromState(state State, deliveryFee decimal.Decimal) *Ledger {
	l := &Ledger{
		promoCode:   state.PromoCode,
		deliveryFee: deliveryFee,
	}
	l.items = make([]LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		item.AvailableStock = copyInt(item.AvailableStock)
		l.items = append(l.items, item)
	}
	l.recomputeDiscount()
	return l
}

// Validate reports whether the state satisfies the ledger invariants.
func (s State) Validate() error {
	seen := make(map[uuid.UUID]struct{}, len(s.Items))
	for i, item := range s.Items {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("item %d: missing product id", i)
		}
		if _, dup := seen[item.ProductID]; dup {
			return fmt.Errorf("item %d: duplicate product %s", i, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
		if item.Quantity < 1 {
			return fmt.Errorf("item %d: quantity %d below 1", i, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: negative unit price", i)
		}
		if item.DiscountPercentage.IsNegative() || item.DiscountPercentage.GreaterThan(hundred) {
			return fmt.Errorf("item %d: discount percentage out of range", i)
		}
		if item.AvailableStock != nil && *item.AvailableStock < 0 {
			return fmt.Errorf("item %d: negative stock", i)
		}
	}
	if s.PromoCode != "" {
		if _, ok := promoTable[s.PromoCode]; !ok {
			return fmt.Errorf("unknown promo code %q", s.PromoCode)
		}
	}
	return nil
}

var errEmptyPayload = errors.New("empty payload")

func encodeState(state State) ([]byte, error) {
	if state.Items == nil {
		state.Items = []LineItem{}
	}
	return json.Marshal(state)
}

// decodeState parses and validates a stored payload. Any error means the
// payload must be treated as absent.
func decodeState(payload []byte) (State, error) {
	if len(payload) == 0 {
		return State{}, errEmptyPayload
	}
	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, fmt.Errorf("decode cart state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return State{}, fmt.Errorf("invalid cart state: %w", err)
	}
	return state, nil
}
