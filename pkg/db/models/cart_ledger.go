package models

import "time"

// CartLedgerRecord stores the serialized ledger state for one cart session.
type CartLedgerRecord struct {
	SessionKey string    `gorm:"column:session_key;primaryKey"`
	Payload    string    `gorm:"column:payload;type:jsonb;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartLedgerRecord) TableName() string {
	return "cart_ledgers"
}
