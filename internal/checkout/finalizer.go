package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/internal/cart"
	"github.com/mercantile/storefront/internal/orders"
	"github.com/mercantile/storefront/pkg/db"
	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/enums"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/logger"
	"github.com/mercantile/storefront/pkg/metrics"
)

const (
	finalizeCreated  = "created"
	finalizeReplayed = "replayed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerClearer interface {
	Clear(ctx context.Context, sessionKey string) (*cart.View, error)
}

// FinalizeResult reports the order a paid session produced.
type FinalizeResult struct {
	Order            *models.Order
	AlreadyFinalized bool
}

// FinalizerParams wires the Finalizer.
type FinalizerParams struct {
	Tx        txRunner
	Checkouts Repository
	Orders    orders.Repository
	Ledgers   ledgerClearer
	Events    orders.EventPublisher
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
}

// Finalizer turns a paid provider session into an order exactly once, then
// clears the ledger the session was started from.
type Finalizer struct {
	tx        txRunner
	checkouts Repository
	orders    orders.Repository
	ledgers   ledgerClearer
	events    orders.EventPublisher
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

func NewFinalizer(params FinalizerParams) (*Finalizer, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Checkouts == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Ledgers == nil {
		return nil, fmt.Errorf("cart service required")
	}
	events := params.Events
	if events == nil {
		events = orders.NoopPublisher{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Finalizer{
		tx:        params.Tx,
		checkouts: params.Checkouts,
		orders:    params.Orders,
		ledgers:   params.Ledgers,
		events:    events,
		logg:      logg,
		metrics:   params.Metrics,
		now:       time.Now,
	}, nil
}

// Finalize is safe to call any number of times for the same provider session.
// Only the first call creates the order, clears the ledger and publishes.
func (f *Finalizer) Finalize(ctx context.Context, providerSessionID string) (*FinalizeResult, error) {
	providerSessionID = strings.TrimSpace(providerSessionID)
	if providerSessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider session id is required")
	}
	ctx = f.logg.WithField(ctx, "provider_session_id", providerSessionID)

	var (
		checkout *models.CheckoutSession
		result   FinalizeResult
	)
	err := f.tx.WithTx(ctx, func(tx *gorm.DB) error {
		checkoutRepo := f.checkouts.WithTx(tx)
		ordersRepo := f.orders.WithTx(tx)

		var err error
		checkout, err = checkoutRepo.FindByProviderSessionID(ctx, providerSessionID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load checkout session")
		}

		existing, err := ordersRepo.FindByCheckoutSessionID(ctx, checkout.ID)
		if err == nil {
			result = FinalizeResult{Order: existing, AlreadyFinalized: true}
			return nil
		}
		if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
		}

		order, err := ordersRepo.CreateWithItems(ctx, buildOrder(checkout))
		if err != nil {
			return err
		}
		if err := checkoutRepo.MarkCompleted(ctx, checkout.ID, f.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: complete checkout session")
		}
		result = FinalizeResult{Order: order}
		return nil
	})
	if err != nil && checkout != nil && db.IsUniqueViolation(err, "") {
		// a concurrent delivery committed first
		existing, findErr := f.orders.FindByCheckoutSessionID(ctx, checkout.ID)
		if findErr == nil {
			result = FinalizeResult{Order: existing, AlreadyFinalized: true}
			err = nil
		}
	}
	if err != nil {
		f.metrics.IncFinalized(metrics.ResultError)
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize checkout")
		}
		return nil, err
	}

	ctx = f.logg.WithField(ctx, "order_id", result.Order.ID.String())
	if result.AlreadyFinalized {
		f.metrics.IncFinalized(finalizeReplayed)
		f.logg.Info(ctx, "checkout already finalized")
		return &result, nil
	}

	if _, err := f.ledgers.Clear(ctx, checkout.SessionKey); err != nil {
		f.logg.WarnErr(f.logg.WithCartSession(ctx, checkout.SessionKey), "clear cart after payment", err)
	}
	if err := f.events.PublishOrderPaid(ctx, result.Order); err != nil {
		f.logg.WarnErr(ctx, "publish order.paid", err)
	}
	f.metrics.IncFinalized(finalizeCreated)
	f.logg.Info(ctx, "checkout finalized")
	return &result, nil
}

func buildOrder(checkout *models.CheckoutSession) *models.Order {
	order := &models.Order{
		ID:                uuid.New(),
		CheckoutSessionID: checkout.ID,
		UserID:            checkout.UserID,
		SessionKey:        checkout.SessionKey,
		Status:            enums.OrderStatusPaid,
		Currency:          checkout.Currency,
		PromoCode:         checkout.PromoCode,
		SubtotalCents:     checkout.SubtotalCents,
		DiscountCents:     checkout.DiscountCents,
		DeliveryFeeCents:  checkout.DeliveryFeeCents,
		TotalCents:        checkout.TotalCents,
		Items:             make([]models.OrderLineItem, 0, len(checkout.Lines)),
	}
	for _, line := range checkout.Lines {
		item := cart.LineItem{
			UnitPrice:          line.UnitPrice,
			DiscountPercentage: line.DiscountPercentage,
			Quantity:           line.Quantity,
		}
		order.Items = append(order.Items, models.OrderLineItem{
			OrderID:            order.ID,
			ProductID:          line.ProductID,
			Title:              line.Title,
			Category:           line.Category,
			UnitPriceCents:     toCents(line.UnitPrice),
			DiscountPercentage: line.DiscountPercentage.StringFixed(2),
			Quantity:           line.Quantity,
			LineTotalCents:     toCents(item.DiscountedUnitPrice()) * int64(line.Quantity),
		})
	}
	return order
}
