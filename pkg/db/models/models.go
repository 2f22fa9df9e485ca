package models

// All lists every persisted model, in dependency order, for sqlite AutoMigrate.
func All() []any {
	return []any{
		&Product{},
		&CartLedgerRecord{},
		&CheckoutSession{},
		&Order{},
		&OrderLineItem{},
		&Review{},
	}
}
