package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// CartMetrics counts ledger mutations and best-effort persistence failures.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart ledger mutations by operation and result.",
	}, []string{"op", "result"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_persist_failures_total",
		Help: "Cart ledger saves or loads that failed and were degraded.",
	}, []string{"op"})
	reg.MustRegister(mutations, persistFailures)
	return &CartMetrics{mutations: mutations, persistFailures: persistFailures}
}

// IncMutation records one mutation outcome.
func (c *CartMetrics) IncMutation(op, result string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// IncPersistFailure records a store failure that was logged and absorbed.
func (c *CartMetrics) IncPersistFailure(op string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

// CheckoutMetrics tracks checkout finalization outcomes.
type CheckoutMetrics struct {
	finalized *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	finalized := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_finalized_total",
		Help: "Checkout finalizations by result (created, replayed, error).",
	}, []string{"result"})
	reg.MustRegister(finalized)
	return &CheckoutMetrics{finalized: finalized}
}

func (c *CheckoutMetrics) IncFinalized(result string) {
	if c == nil || c.finalized == nil {
		return
	}
	c.finalized.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
