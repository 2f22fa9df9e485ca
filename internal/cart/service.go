package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/logger"
	"github.com/mercantile/storefront/pkg/metrics"
)

const (
	OpAddItem        = "add_item"
	OpRemoveItem     = "remove_item"
	OpUpdateQuantity = "update_quantity"
	OpApplyPromo     = "apply_promo"
	OpClear          = "clear"

	persistOpLoad = "load"
	persistOpSave = "save"
)

var errCartUnavailable = pkgerrors.New(pkgerrors.CodeDependency, "cart storage unavailable")

// Catalog supplies product snapshots at add time.
type Catalog interface {
	GetSnapshot(ctx context.Context, productID uuid.UUID) (ProductSnapshot, error)
}

// Service owns the load-mutate-persist cycle for session ledgers.
type Service interface {
	Get(ctx context.Context, sessionKey string) (*View, error)
	AddItem(ctx context.Context, sessionKey string, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, sessionKey string, productID uuid.UUID) (*View, error)
	UpdateQuantity(ctx context.Context, sessionKey string, productID uuid.UUID, quantity int) (*View, error)
	ApplyPromoCode(ctx context.Context, sessionKey string, code string) (*View, error)
	Clear(ctx context.Context, sessionKey string) (*View, error)
	Snapshot(ctx context.Context, sessionKey string) (*Ledger, error)
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Store       Store
	Catalog     Catalog
	DeliveryFee decimal.Decimal
	Logger      *logger.Logger
	Metrics     *metrics.CartMetrics
}

type service struct {
	store       Store
	catalog     Catalog
	deliveryFee decimal.Decimal
	logg        *logger.Logger
	metrics     *metrics.CartMetrics
}

// NewService builds a cart service backed by the provided store and catalog.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.DeliveryFee.IsNegative() {
		return nil, fmt.Errorf("delivery fee must be non-negative")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:       params.Store,
		catalog:     params.Catalog,
		deliveryFee: params.DeliveryFee,
		logg:        logg,
		metrics:     params.Metrics,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionKey string) (*View, error) {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart session")
	}
	ledger, _ := s.load(ctx, sessionKey)
	return NewView(ledger), nil
}

func (s *service) AddItem(ctx context.Context, sessionKey string, productID uuid.UUID, quantity int) (*View, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	snapshot, err := s.catalog.GetSnapshot(ctx, productID)
	if err != nil {
		s.metrics.IncMutation(OpAddItem, metrics.ResultError)
		return nil, err
	}
	return s.mutate(ctx, OpAddItem, sessionKey, func(l *Ledger) error {
		return l.AddItem(snapshot, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionKey string, productID uuid.UUID) (*View, error) {
	return s.mutate(ctx, OpRemoveItem, sessionKey, func(l *Ledger) error {
		l.RemoveItem(productID)
		return nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionKey string, productID uuid.UUID, quantity int) (*View, error) {
	return s.mutate(ctx, OpUpdateQuantity, sessionKey, func(l *Ledger) error {
		l.UpdateQuantity(productID, quantity)
		return nil
	})
}

func (s *service) ApplyPromoCode(ctx context.Context, sessionKey string, code string) (*View, error) {
	return s.mutate(ctx, OpApplyPromo, sessionKey, func(l *Ledger) error {
		l.ApplyPromoCode(code)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, sessionKey string) (*View, error) {
	return s.mutate(ctx, OpClear, sessionKey, func(l *Ledger) error {
		l.Clear()
		return nil
	})
}

// Snapshot returns a detached copy of the session's ledger.
func (s *service) Snapshot(ctx context.Context, sessionKey string) (*Ledger, error) {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart session")
	}
	ledger, trusted := s.load(ctx, sessionKey)
	if !trusted {
		return nil, errCartUnavailable
	}
	return ledger.Snapshot(), nil
}

func (s *service) mutate(ctx context.Context, op, sessionKey string, fn func(*Ledger) error) (*View, error) {
	if err := ValidateSessionKey(sessionKey); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart session")
	}
	ctx = s.logg.WithFields(s.logg.WithCartSession(ctx, sessionKey), map[string]any{"cart_op": op})

	ledger, trusted := s.load(ctx, sessionKey)
	// an unreadable ledger must not be overwritten by a partial one; clear is the exception
	if !trusted && op != OpClear {
		s.metrics.IncMutation(op, metrics.ResultError)
		return nil, errCartUnavailable
	}
	if err := fn(ledger); err != nil {
		s.metrics.IncMutation(op, metrics.ResultRejected)
		return nil, err
	}

	if err := s.store.Save(ctx, sessionKey, ledger.State()); err != nil {
		s.metrics.IncPersistFailure(persistOpSave)
		s.logg.WarnErr(ctx, "cart save failed; returning unsaved ledger", err)
	}
	s.metrics.IncMutation(op, metrics.ResultOK)
	return NewView(ledger), nil
}

// load reports trusted=false when the store failed and the empty ledger
// returned stands in for state that could not be read.
func (s *service) load(ctx context.Context, sessionKey string) (*Ledger, bool) {
	state, found, err := s.store.Load(ctx, sessionKey)
	if err != nil {
		s.metrics.IncPersistFailure(persistOpLoad)
		s.logg.WarnErr(s.logg.WithCartSession(ctx, sessionKey), "cart load failed; starting empty", err)
		return NewLedger(s.deliveryFee), false
	}
	if !found {
		return NewLedger(s.deliveryFee), true
	}
	return FromState(state, s.deliveryFee), true
}
