package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mercantile/storefront/internal/cart"
	"github.com/mercantile/storefront/internal/orders"
	product "github.com/mercantile/storefront/internal/products"
	"github.com/mercantile/storefront/pkg/db"
	"github.com/mercantile/storefront/pkg/db/dbtest"
	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/enums"
	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/metrics"
	pkgstripe "github.com/mercantile/storefront/pkg/stripe"
)

type fakeGateway struct {
	calls []pkgstripe.CheckoutSessionInput
	err   error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, in pkgstripe.CheckoutSessionInput) (*pkgstripe.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.calls = append(g.calls, in)
	id := fmt.Sprintf("cs_test_%d", len(g.calls))
	return &pkgstripe.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (g *fakeGateway) Currency() string { return "USD" }

type countingPublisher struct {
	published []*models.Order
	err       error
}

func (p *countingPublisher) PublishOrderPaid(_ context.Context, order *models.Order) error {
	p.published = append(p.published, order)
	return p.err
}

type fixture struct {
	conn      *gorm.DB
	products  product.Service
	carts     cart.Service
	gateway   *fakeGateway
	events    *countingPublisher
	checkout  Service
	finalizer *Finalizer
	checkouts Repository
	reg       *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)

	products, err := product.NewService(product.NewRepository(conn))
	require.NoError(t, err)
	carts, err := cart.NewService(cart.ServiceParams{
		Store:       cart.NewMemoryStore(nil),
		Catalog:     products,
		DeliveryFee: decimal.NewFromInt(15),
	})
	require.NoError(t, err)

	f := &fixture{
		conn:      conn,
		products:  products,
		carts:     carts,
		gateway:   &fakeGateway{},
		events:    &countingPublisher{},
		checkouts: NewRepository(conn),
		reg:       prometheus.NewRegistry(),
	}
	f.checkout, err = NewService(ServiceParams{
		Repo:    f.checkouts,
		Ledgers: carts,
		Catalog: products,
		Gateway: f.gateway,
	})
	require.NoError(t, err)
	f.finalizer, err = NewFinalizer(FinalizerParams{
		Tx:        db.NewFromConn(conn),
		Checkouts: f.checkouts,
		Orders:    orders.NewRepository(conn),
		Ledgers:   carts,
		Events:    f.events,
		Metrics:   metrics.NewCheckoutMetrics(f.reg),
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) addProduct(t *testing.T, title, price, discount string, stock int) uuid.UUID {
	t.Helper()
	dto, err := f.products.Create(context.Background(), product.CreateProductInput{
		SKU:                "SKU-" + uuid.NewString(),
		Title:              title,
		Category:           "general",
		Price:              decimal.RequireFromString(price),
		DiscountPercentage: decimal.RequireFromString(discount),
		Stock:              stock,
		IsActive:           true,
	})
	require.NoError(t, err)
	return dto.ID
}

func (f *fixture) finalizedCount(t *testing.T, result string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "storefront_checkout_finalized_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if m.GetLabel()[0].GetValue() == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestStartRejectsEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkout.Start(context.Background(), StartInput{SessionKey: cart.NewGuestSessionKey()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Empty(t, f.gateway.calls)
}

func TestStartCreatesPendingSessionWithoutClearingCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cart.NewGuestSessionKey()
	lamp := f.addProduct(t, "Lamp", "40", "25", 5)

	_, err := f.carts.AddItem(ctx, key, lamp, 2)
	require.NoError(t, err)
	_, err = f.carts.ApplyPromoCode(ctx, key, "SAVE10")
	require.NoError(t, err)

	userID := uuid.New()
	res, err := f.checkout.Start(ctx, StartInput{SessionKey: key, UserID: &userID})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", res.ProviderSessionID)
	assert.Equal(t, int64(6900), res.TotalCents)
	assert.Equal(t, "usd", res.Currency)

	require.Len(t, f.gateway.calls, 1)
	call := f.gateway.calls[0]
	assert.Equal(t, res.CheckoutSessionID.String(), call.ClientReferenceID)
	assert.Equal(t, key, call.Metadata[metadataSessionKey])
	require.Len(t, call.Lines, 2)
	assert.Equal(t, pkgstripe.CheckoutLine{Name: "Lamp", UnitAmountCents: 2700, Quantity: 2}, call.Lines[0])
	assert.Equal(t, pkgstripe.CheckoutLine{Name: deliveryLineName, UnitAmountCents: 1500, Quantity: 1}, call.Lines[1])

	record, err := f.checkouts.FindByID(ctx, res.CheckoutSessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusPending, record.Status)
	assert.Equal(t, int64(6000), record.SubtotalCents)
	assert.Equal(t, int64(600), record.DiscountCents)
	assert.Equal(t, int64(1500), record.DeliveryFeeCents)
	require.NotNil(t, record.PromoCode)
	assert.Equal(t, cart.PromoSave10, *record.PromoCode)
	require.Len(t, record.Lines, 1)
	assert.True(t, record.Lines[0].UnitPrice.Equal(decimal.NewFromInt(40)))

	view, err := f.carts.Get(ctx, key)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestStartRecordsTheAmountSentToTheProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cart.NewGuestSessionKey()
	_, err := f.carts.AddItem(ctx, key, f.addProduct(t, "Print", "33.33", "0", 5), 3)
	require.NoError(t, err)
	_, err = f.carts.ApplyPromoCode(ctx, key, cart.PromoSave10)
	require.NoError(t, err)

	res, err := f.checkout.Start(ctx, StartInput{SessionKey: key})
	require.NoError(t, err)

	var charged int64
	for _, line := range f.gateway.calls[0].Lines {
		charged += line.UnitAmountCents * line.Quantity
	}
	assert.Equal(t, charged, res.TotalCents)
	assert.Equal(t, int64(10500), res.TotalCents)

	record, err := f.checkouts.FindByID(ctx, res.CheckoutSessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(9999), record.SubtotalCents)
	assert.Equal(t, int64(999), record.DiscountCents)
	assert.Equal(t, record.SubtotalCents-record.DiscountCents+record.DeliveryFeeCents, record.TotalCents)

	order, err := f.finalizer.Finalize(ctx, res.ProviderSessionID)
	require.NoError(t, err)
	assert.Equal(t, charged, order.Order.TotalCents)
	assert.Equal(t, int64(9999), order.Order.Items[0].LineTotalCents)
}

func TestStartFreeShippingOmitsDeliveryLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cart.NewGuestSessionKey()
	_, err := f.carts.AddItem(ctx, key, f.addProduct(t, "Mug", "9.99", "0", 3), 1)
	require.NoError(t, err)
	_, err = f.carts.ApplyPromoCode(ctx, key, "freeship")
	require.NoError(t, err)

	res, err := f.checkout.Start(ctx, StartInput{SessionKey: key})
	require.NoError(t, err)
	assert.Equal(t, int64(999), res.TotalCents)
	require.Len(t, f.gateway.calls[0].Lines, 1)
}

func TestStartRevalidatesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cart.NewGuestSessionKey()
	id := f.addProduct(t, "Vase", "20", "0", 5)
	gone := f.addProduct(t, "Bowl", "5", "0", 5)

	_, err := f.carts.AddItem(ctx, key, id, 4)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, key, gone, 1)
	require.NoError(t, err)

	stock := 2
	_, err = f.products.Update(ctx, id, product.UpdateProductInput{Stock: &stock})
	require.NoError(t, err)
	require.NoError(t, f.products.Delete(ctx, gone))

	_, err = f.checkout.Start(ctx, StartInput{SessionKey: key})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	require.True(t, errors.Is(err, cart.ErrInsufficientStock))
	details := pkgerrors.As(err).Details().(map[string]any)
	violations := details["violations"].([]StockViolation)
	require.Len(t, violations, 2)
	assert.Equal(t, StockViolation{ProductID: id, Title: "Vase", Requested: 4, Available: 2}, violations[0])
	assert.Equal(t, 0, violations[1].Available)
	require.Empty(t, f.gateway.calls)
}

func TestStartGatewayFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cart.NewGuestSessionKey()
	_, err := f.carts.AddItem(ctx, key, f.addProduct(t, "Rug", "100", "0", 1), 1)
	require.NoError(t, err)

	f.gateway.err = errors.New("stripe unavailable")
	_, err = f.checkout.Start(ctx, StartInput{SessionKey: key})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var count int64
	require.NoError(t, f.conn.Model(&models.CheckoutSession{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cart.NewGuestSessionKey()
	id := f.addProduct(t, "Clock", "25", "10", 10)
	_, err := f.carts.AddItem(ctx, key, id, 3)
	require.NoError(t, err)

	started, err := f.checkout.Start(ctx, StartInput{SessionKey: key})
	require.NoError(t, err)

	first, err := f.finalizer.Finalize(ctx, started.ProviderSessionID)
	require.NoError(t, err)
	require.False(t, first.AlreadyFinalized)
	require.Len(t, first.Order.Items, 1)
	item := first.Order.Items[0]
	assert.Equal(t, int64(2500), item.UnitPriceCents)
	assert.Equal(t, "10.00", item.DiscountPercentage)
	assert.Equal(t, int64(6750), item.LineTotalCents)
	assert.Equal(t, int64(8250), first.Order.TotalCents)

	view, err := f.carts.Get(ctx, key)
	require.NoError(t, err)
	require.Empty(t, view.Items)

	record, err := f.checkouts.FindByID(ctx, started.CheckoutSessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusCompleted, record.Status)
	assert.NotNil(t, record.CompletedAt)

	// the shopper starts a new cart before the provider redelivers
	_, err = f.carts.AddItem(ctx, key, id, 1)
	require.NoError(t, err)

	replay, err := f.finalizer.Finalize(ctx, started.ProviderSessionID)
	require.NoError(t, err)
	require.True(t, replay.AlreadyFinalized)
	assert.Equal(t, first.Order.ID, replay.Order.ID)

	view, err = f.carts.Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	var orderCount int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 1, orderCount)
	assert.Len(t, f.events.published, 1)
	assert.Equal(t, 1.0, f.finalizedCount(t, finalizeCreated))
	assert.Equal(t, 1.0, f.finalizedCount(t, finalizeReplayed))
}

func TestFinalizePublishFailureIsAbsorbed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cart.NewGuestSessionKey()
	_, err := f.carts.AddItem(ctx, key, f.addProduct(t, "Desk", "300", "0", 1), 1)
	require.NoError(t, err)
	started, err := f.checkout.Start(ctx, StartInput{SessionKey: key})
	require.NoError(t, err)

	f.events.err = errors.New("pubsub down")
	res, err := f.finalizer.Finalize(ctx, started.ProviderSessionID)
	require.NoError(t, err)
	require.False(t, res.AlreadyFinalized)
}

func TestFinalizeUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.finalizer.Finalize(context.Background(), "cs_missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 1.0, f.finalizedCount(t, metrics.ResultError))

	_, err = f.finalizer.Finalize(context.Background(), "  ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestExpireOnlyTouchesPendingSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cart.NewGuestSessionKey()
	id := f.addProduct(t, "Shelf", "50", "0", 5)
	_, err := f.carts.AddItem(ctx, key, id, 1)
	require.NoError(t, err)

	pending, err := f.checkout.Start(ctx, StartInput{SessionKey: key})
	require.NoError(t, err)
	paid, err := f.checkout.Start(ctx, StartInput{SessionKey: key})
	require.NoError(t, err)
	_, err = f.finalizer.Finalize(ctx, paid.ProviderSessionID)
	require.NoError(t, err)

	require.NoError(t, f.checkout.Expire(ctx, pending.ProviderSessionID))
	require.NoError(t, f.checkout.Expire(ctx, paid.ProviderSessionID))
	require.NoError(t, f.checkout.Expire(ctx, "cs_unknown"))

	record, err := f.checkouts.FindByID(ctx, pending.CheckoutSessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusExpired, record.Status)
	record, err = f.checkouts.FindByID(ctx, paid.CheckoutSessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusCompleted, record.Status)
}
