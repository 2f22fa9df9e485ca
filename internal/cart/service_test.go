package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mercantile/storefront/pkg/errors"
	"github.com/mercantile/storefront/pkg/metrics"
)

type fakeCatalog struct {
	products map[uuid.UUID]ProductSnapshot
	err      error
}

func (c *fakeCatalog) GetSnapshot(_ context.Context, id uuid.UUID) (ProductSnapshot, error) {
	if c.err != nil {
		return ProductSnapshot{}, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return ProductSnapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func (c *fakeCatalog) add(p ProductSnapshot) uuid.UUID {
	if c.products == nil {
		c.products = map[uuid.UUID]ProductSnapshot{}
	}
	c.products[p.ProductID] = p
	return p.ProductID
}

type flakyStore struct {
	*MemoryStore
	saveErr error
	loadErr error
}

func (f *flakyStore) Save(ctx context.Context, key string, state State) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, key, state)
}

func (f *flakyStore) Load(ctx context.Context, key string) (State, bool, error) {
	if f.loadErr != nil {
		return State{}, false, f.loadErr
	}
	return f.MemoryStore.Load(ctx, key)
}

type serviceFixture struct {
	svc     Service
	store   *flakyStore
	catalog *fakeCatalog
	metrics *metrics.CartMetrics
	reg     *prometheus.Registry
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	f := &serviceFixture{
		store:   &flakyStore{MemoryStore: NewMemoryStore(nil)},
		catalog: &fakeCatalog{},
		metrics: metrics.NewCartMetrics(reg),
		reg:     reg,
	}
	svc, err := NewService(ServiceParams{
		Store:       f.store,
		Catalog:     f.catalog,
		DeliveryFee: fee15,
		Metrics:     f.metrics,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *serviceFixture) count(t *testing.T, name string, labels ...string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			values := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				values = append(values, lp.GetValue())
			}
			if equalStrings(values, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{Catalog: &fakeCatalog{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Store: NewMemoryStore(nil)})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Store: NewMemoryStore(nil), Catalog: &fakeCatalog{}, DeliveryFee: dec("-1")})
	require.Error(t, err)
}

func TestServicePersistsAcrossCalls(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	key := NewGuestSessionKey()
	id := f.catalog.add(snapshot("40", "25", intPtr(10)))

	view, err := f.svc.AddItem(ctx, key, id, 2)
	require.NoError(t, err)
	require.Equal(t, "60.00", view.Subtotal)

	_, err = f.svc.ApplyPromoCode(ctx, key, " save20 ")
	require.NoError(t, err)

	view, err = f.svc.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, view.PromoCode)
	require.Equal(t, PromoSave20, *view.PromoCode)
	require.Equal(t, "12.00", view.DiscountAmount)
	require.Equal(t, "63.00", view.Total)
	require.Equal(t, 2, view.ItemCount)

	view, err = f.svc.UpdateQuantity(ctx, key, id, 0)
	require.NoError(t, err)
	require.Equal(t, 1, view.Items[0].Quantity)

	view, err = f.svc.RemoveItem(ctx, key, id)
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Equal(t, "0.00", view.DiscountAmount)

	view, err = f.svc.Clear(ctx, key)
	require.NoError(t, err)
	require.Nil(t, view.PromoCode)
	require.Equal(t, "15.00", view.Total)

	require.Equal(t, 1.0, f.count(t, "storefront_cart_mutations_total", OpAddItem, metrics.ResultOK))
	require.Equal(t, 1.0, f.count(t, "storefront_cart_mutations_total", OpClear, metrics.ResultOK))
}

func TestServiceRejectionLeavesStoredLedger(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	key := NewGuestSessionKey()
	id := f.catalog.add(snapshot("10", "0", intPtr(3)))

	_, err := f.svc.AddItem(ctx, key, id, 2)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, key, id, 2)
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	require.True(t, errors.Is(err, ErrInsufficientStock))

	view, err := f.svc.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, 2, view.Items[0].Quantity)
	require.Equal(t, 1.0, f.count(t, "storefront_cart_mutations_total", OpAddItem, metrics.ResultRejected))
}

func TestServiceCatalogFailureIsReturned(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	key := NewGuestSessionKey()

	_, err := f.svc.AddItem(ctx, key, uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	f.catalog.err = errors.New("db down")
	_, err = f.svc.AddItem(ctx, key, uuid.New(), 1)
	require.ErrorContains(t, err, "db down")
	require.Equal(t, 2.0, f.count(t, "storefront_cart_mutations_total", OpAddItem, metrics.ResultError))

	_, err = f.svc.AddItem(ctx, key, uuid.Nil, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceSaveFailureStillReturnsLedger(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	key := NewGuestSessionKey()
	id := f.catalog.add(snapshot("12.50", "0", nil))

	f.store.saveErr = errors.New("redis timeout")
	view, err := f.svc.AddItem(ctx, key, id, 2)
	require.NoError(t, err)
	require.Equal(t, "25.00", view.Subtotal)
	require.Equal(t, 1.0, f.count(t, "storefront_cart_persist_failures_total", "save"))

	f.store.saveErr = nil
	view, err = f.svc.Get(ctx, key)
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestServiceLoadFailureStartsEmpty(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	key := NewGuestSessionKey()
	id := f.catalog.add(snapshot("8", "0", nil))

	_, err := f.svc.AddItem(ctx, key, id, 1)
	require.NoError(t, err)

	f.store.loadErr = errors.New("connection reset")
	view, err := f.svc.Get(ctx, key)
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Equal(t, 1.0, f.count(t, "storefront_cart_persist_failures_total", "load"))
}

func TestServiceLoadFailureKeepsStoredLedger(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	key := NewGuestSessionKey()
	a := f.catalog.add(snapshot("10", "0", nil))
	b := f.catalog.add(snapshot("20", "0", nil))
	c := f.catalog.add(snapshot("30", "0", nil))

	_, err := f.svc.AddItem(ctx, key, a, 1)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, key, b, 1)
	require.NoError(t, err)

	f.store.loadErr = errors.New("connection reset")
	_, err = f.svc.AddItem(ctx, key, c, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	_, err = f.svc.ApplyPromoCode(ctx, key, PromoSave10)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	_, err = f.svc.Snapshot(ctx, key)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	f.store.loadErr = nil
	view, err := f.svc.Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	require.Nil(t, view.PromoCode)
	require.Equal(t, "30.00", view.Subtotal)
}

func TestServiceClearSavesEvenWhenLoadFails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	key := NewGuestSessionKey()
	id := f.catalog.add(snapshot("10", "0", nil))

	_, err := f.svc.AddItem(ctx, key, id, 1)
	require.NoError(t, err)

	f.store.loadErr = errors.New("connection reset")
	view, err := f.svc.Clear(ctx, key)
	require.NoError(t, err)
	require.Empty(t, view.Items)

	f.store.loadErr = nil
	view, err = f.svc.Get(ctx, key)
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestServiceRejectsInvalidSessionKey(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "nope")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.Clear(ctx, "user:123")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.Snapshot(ctx, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceSnapshotIsDetached(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	key := UserSessionKey(uuid.New())
	id := f.catalog.add(snapshot("30", "0", intPtr(4)))

	_, err := f.svc.AddItem(ctx, key, id, 1)
	require.NoError(t, err)

	snap, err := f.svc.Snapshot(ctx, key)
	require.NoError(t, err)
	snap.Clear()

	view, err := f.svc.Get(ctx, key)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
}

func TestNilMetricsAreSafe(t *testing.T) {
	svc, err := NewService(ServiceParams{Store: NewMemoryStore(nil), Catalog: &fakeCatalog{}})
	require.NoError(t, err)
	_, err = svc.Clear(context.Background(), NewGuestSessionKey())
	require.NoError(t, err)
}
