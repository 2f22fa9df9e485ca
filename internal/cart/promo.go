package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PromoEffect is what a recognized promo code does to the ledger.
type PromoEffect string

const (
	PromoEffectPercentOff   PromoEffect = "percent_off"
	PromoEffectFreeShipping PromoEffect = "free_shipping"
)

// Promo is one entry of the fixed promo table.
type Promo struct {
	Code    string
	Effect  PromoEffect
	Percent decimal.Decimal
}

const (
	PromoSave10   = "SAVE10"
	PromoSave20   = "SAVE20"
	PromoFreeShip = "FREESHIP"
)

var promoTable = map[string]Promo{
	PromoSave10:   {Code: PromoSave10, Effect: PromoEffectPercentOff, Percent: decimal.NewFromInt(10)},
	PromoSave20:   {Code: PromoSave20, Effect: PromoEffectPercentOff, Percent: decimal.NewFromInt(20)},
	PromoFreeShip: {Code: PromoFreeShip, Effect: PromoEffectFreeShipping},
}

// NormalizePromoCode trims and uppercases user input.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LookupPromo finds a code in the fixed table, case-insensitively.
func LookupPromo(code string) (Promo, bool) {
	promo, ok := promoTable[NormalizePromoCode(code)]
	return promo, ok
}
