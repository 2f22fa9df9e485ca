package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercantile/storefront/internal/cart"
	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/enums"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/logger"
	pkgstripe "github.com/mercantile/storefront/pkg/stripe"
)

const (
	deliveryLineName = "Delivery"

	metadataSessionKey = "cart_session"
	metadataCheckoutID = "checkout_id"
)

var hundred = decimal.NewFromInt(100)

// PaymentGateway opens hosted checkout pages with the payment provider.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, in pkgstripe.CheckoutSessionInput) (*pkgstripe.CheckoutSession, error)
	Currency() string
}

type ledgerSource interface {
	Snapshot(ctx context.Context, sessionKey string) (*cart.Ledger, error)
}

// Service starts and expires checkout sessions.
type Service interface {
	Start(ctx context.Context, input StartInput) (*StartResult, error)
	Expire(ctx context.Context, providerSessionID string) error
}

// StartInput identifies whose ledger is being checked out.
type StartInput struct {
	SessionKey string
	UserID     *uuid.UUID
}

// StartResult is returned to the client to redirect into the hosted page.
type StartResult struct {
	CheckoutSessionID uuid.UUID `json:"checkout_session_id"`
	ProviderSessionID string    `json:"provider_session_id"`
	URL               string    `json:"url"`
	TotalCents        int64     `json:"total_cents"`
	Currency          string    `json:"currency"`
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Repo    Repository
	Ledgers ledgerSource
	Catalog cart.Catalog
	Gateway PaymentGateway
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	ledgers ledgerSource
	catalog cart.Catalog
	gateway PaymentGateway
	logg    *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if params.Ledgers == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    params.Repo,
		ledgers: params.Ledgers,
		catalog: params.Catalog,
		gateway: params.Gateway,
		logg:    logg,
	}, nil
}

// Start snapshots the ledger, checks stock and opens a provider session. The
// ledger itself is left untouched until the payment is confirmed.
func (s *service) Start(ctx context.Context, input StartInput) (*StartResult, error) {
	ledger, err := s.ledgers.Snapshot(ctx, input.SessionKey)
	if err != nil {
		return nil, err
	}
	if ledger.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	items := ledger.Items()
	if err := ValidateStock(ctx, s.catalog, items); err != nil {
		return nil, err
	}

	checkoutID := uuid.New()
	charge := priceLedger(ledger)
	provider, err := s.gateway.CreateCheckoutSession(ctx, pkgstripe.CheckoutSessionInput{
		ClientReferenceID: checkoutID.String(),
		Lines:             charge.Lines,
		Metadata: map[string]string{
			metadataSessionKey: input.SessionKey,
			metadataCheckoutID: checkoutID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}

	record := &models.CheckoutSession{
		ID:                checkoutID,
		ProviderSessionID: provider.ID,
		SessionKey:        input.SessionKey,
		UserID:            input.UserID,
		Status:            enums.CheckoutStatusPending,
		Currency:          strings.ToLower(s.gateway.Currency()),
		Lines:             snapshotLines(items),
		SubtotalCents:     charge.SubtotalCents,
		DiscountCents:     charge.DiscountCents,
		DeliveryFeeCents:  charge.DeliveryFeeCents,
		TotalCents:        charge.TotalCents,
		CheckoutURL:       provider.URL,
	}
	if code := ledger.PromoCode(); code != "" {
		record.PromoCode = &code
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert checkout session")
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithCartSession(ctx, input.SessionKey), map[string]any{
		"checkout_id":         checkoutID.String(),
		"provider_session_id": provider.ID,
		"total_cents":         record.TotalCents,
	}), "checkout started")

	return &StartResult{
		CheckoutSessionID: checkoutID,
		ProviderSessionID: provider.ID,
		URL:               provider.URL,
		TotalCents:        record.TotalCents,
		Currency:          record.Currency,
	}, nil
}

func (s *service) Expire(ctx context.Context, providerSessionID string) error {
	expired, err := s.repo.MarkExpired(ctx, providerSessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: expire checkout session")
	}
	if !expired {
		s.logg.Debug(s.logg.WithField(ctx, "provider_session_id", providerSessionID), "checkout expiry ignored")
	}
	return nil
}

// Charge is the cent-level pricing of a ledger: the lines sent to the
// provider and the totals recorded for the order. TotalCents always equals
// the sum of the lines, so the amount charged and the amount recorded agree.
type Charge struct {
	Lines            []pkgstripe.CheckoutLine
	SubtotalCents    int64
	DiscountCents    int64
	DeliveryFeeCents int64
	TotalCents       int64
}

// priceLedger rounds each unit price to cents once, after product and
// percent-off promo discounts, and derives every total from those units.
func priceLedger(ledger *cart.Ledger) Charge {
	promoFactor := decimal.NewFromInt(1)
	if promo, ok := cart.LookupPromo(ledger.PromoCode()); ok && promo.Effect == cart.PromoEffectPercentOff {
		promoFactor = hundred.Sub(promo.Percent).Div(hundred)
	}

	items := ledger.Items()
	charge := Charge{Lines: make([]pkgstripe.CheckoutLine, 0, len(items)+1)}
	var charged int64
	for _, item := range items {
		qty := int64(item.Quantity)
		unit := item.DiscountedUnitPrice()
		promoted := toCents(unit.Mul(promoFactor))
		charge.SubtotalCents += toCents(unit) * qty
		charged += promoted * qty
		charge.Lines = append(charge.Lines, pkgstripe.CheckoutLine{
			Name:            item.Title,
			UnitAmountCents: promoted,
			Quantity:        qty,
		})
	}
	charge.DiscountCents = charge.SubtotalCents - charged
	if fee := ledger.EffectiveDeliveryFee(); fee.IsPositive() {
		charge.DeliveryFeeCents = toCents(fee)
		charge.Lines = append(charge.Lines, pkgstripe.CheckoutLine{
			Name:            deliveryLineName,
			UnitAmountCents: charge.DeliveryFeeCents,
			Quantity:        1,
		})
	}
	charge.TotalCents = charged + charge.DeliveryFeeCents
	return charge
}

func snapshotLines(items []cart.LineItem) []models.CheckoutLine {
	out := make([]models.CheckoutLine, 0, len(items))
	for _, item := range items {
		out = append(out, models.CheckoutLine{
			ProductID:          item.ProductID,
			Title:              item.Title,
			Category:           item.Category,
			Image:              item.Image,
			UnitPrice:          item.UnitPrice,
			DiscountPercentage: item.DiscountPercentage,
			Quantity:           item.Quantity,
		})
	}
	return out
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
