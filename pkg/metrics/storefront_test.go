package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestStorefrontMetricsCountsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefrontMetrics(reg)

	m.IncNotice("cart.stock_limit_reached", "warning")
	m.IncNotice("cart.stock_limit_reached", "warning")
	m.IncPayment("sandbox", "approved")
	m.IncTransition("cart", "shipping_form")
	m.ObserveProviderCall("sandbox", "capture", 10*time.Millisecond)
	m.IncPersistenceFailure("load", "cart_v3")
	m.SetActiveSessions(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(t, mfs, "storefront_notices_total", map[string]string{"kind": "cart.stock_limit_reached", "level": "warning"}); got != 2 {
		t.Fatalf("expected notices=2, got %f", got)
	}
	if got := counterValue(t, mfs, "storefront_payment_attempts_total", map[string]string{"provider": "sandbox", "outcome": "approved"}); got != 1 {
		t.Fatalf("expected payments=1, got %f", got)
	}
	if got := counterValue(t, mfs, "storefront_checkout_transitions_total", map[string]string{"from": "cart", "to": "shipping_form"}); got != 1 {
		t.Fatalf("expected one transition, got %f", got)
	}
	if got := histogramSum(t, mfs, "storefront_payment_provider_seconds", map[string]string{"operation": "capture"}); got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f", got)
	}
	if got := counterValue(t, mfs, "storefront_persistence_failures_total", map[string]string{"operation": "load", "namespace": "cart_v3"}); got != 1 {
		t.Fatalf("expected one persistence failure, got %f", got)
	}
	if got := gaugeValue(t, mfs, "storefront_active_sessions", nil); got != 3 {
		t.Fatalf("expected active sessions gauge of 3, got %f", got)
	}
}

func TestNilStorefrontMetricsIsSafe(t *testing.T) {
	var m *StorefrontMetrics
	m.IncNotice("x", "y")
	m.IncPayment("p", "o")
	m.SetActiveSessions(1)

	unregistered := NewStorefrontMetrics(nil)
	unregistered.IncTransition("cart", "payment")
}
