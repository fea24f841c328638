package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics counts shopper-facing events raised by the cart, checkout and payment flow.
type StorefrontMetrics struct {
	notices        *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	payments       *prometheus.CounterVec
	providerCalls  *prometheus.HistogramVec
	persistFailure *prometheus.CounterVec
	sessions       prometheus.Gauge
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	m := &StorefrontMetrics{
		notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_notices_total",
			Help: "User-visible notices raised by core operations.",
		}, []string{"kind", "level"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkout_transitions_total",
			Help: "Checkout step transitions.",
		}, []string{"from", "to"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_payment_attempts_total",
			Help: "Payment bridge outcomes.",
		}, []string{"provider", "outcome"}),
		providerCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_payment_provider_seconds",
			Help:    "Latency of payment provider calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		persistFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_persistence_failures_total",
			Help: "Persistence reads or writes that degraded to empty state.",
		}, []string{"operation", "namespace"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_active_sessions",
			Help: "Shopper sessions held in memory.",
		}),
	}
	reg.MustRegister(m.notices, m.transitions, m.payments, m.providerCalls, m.persistFailure, m.sessions)
	return m
}

// IncNotice counts a notice by kind and level.
func (m *StorefrontMetrics) IncNotice(kind, level string) {
	if m == nil || m.notices == nil {
		return
	}
	m.notices.WithLabelValues(normalizeLabel(kind), normalizeLabel(level)).Inc()
}

// IncTransition counts a checkout step change.
func (m *StorefrontMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncPayment counts a payment bridge outcome.
func (m *StorefrontMetrics) IncPayment(provider, outcome string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// ObserveProviderCall records a provider round-trip.
func (m *StorefrontMetrics) ObserveProviderCall(provider, operation string, duration time.Duration) {
	if m == nil || m.providerCalls == nil {
		return
	}
	m.providerCalls.WithLabelValues(normalizeLabel(provider), normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncPersistenceFailure counts a degraded persistence read or write.
func (m *StorefrontMetrics) IncPersistenceFailure(operation, namespace string) {
	if m == nil || m.persistFailure == nil {
		return
	}
	m.persistFailure.WithLabelValues(normalizeLabel(operation), normalizeLabel(namespace)).Inc()
}

// SetActiveSessions records the number of live sessions.
func (m *StorefrontMetrics) SetActiveSessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}
