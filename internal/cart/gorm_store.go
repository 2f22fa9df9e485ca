package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercantile/storefront/pkg/db"
	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/logger"
)

// GormStore keeps ledgers in the cart_ledgers table.
type GormStore struct {
	db   *gorm.DB
	logg *logger.Logger
}

func NewGormStore(conn *gorm.DB, logg *logger.Logger) (*GormStore, error) {
	if conn == nil {
		return nil, errors.New("db connection required for cart store")
	}
	return &GormStore{db: conn, logg: logg}, nil
}

func (s *GormStore) Save(ctx context.Context, sessionKey string, state State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}
	record := models.CartLedgerRecord{SessionKey: sessionKey, Payload: string(payload)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("save cart ledger: %w", err)
	}
	return nil
}

func (s *GormStore) Load(ctx context.Context, sessionKey string) (State, bool, error) {
	var record models.CartLedgerRecord
	err := s.db.WithContext(ctx).Where("session_key = ?", sessionKey).First(&record).Error
	if err != nil {
		if db.IsNotFound(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("load cart ledger: %w", err)
	}
	state, ok := decodeOrDiscard(ctx, s.logg, sessionKey, []byte(record.Payload))
	return state, ok, nil
}
