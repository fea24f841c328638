package payment

import (
	"context"
	"sync"
	"time"
)

// ProviderOrder is the provider's handle for a created order.
type ProviderOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Capture is the provider's answer to finalizing an order.
type Capture struct {
	OrderID    string    `json:"order_id"`
	CaptureID  string    `json:"capture_id"`
	Status     string    `json:"status"`
	Payer      Payer     `json:"payer"`
	Amount     Money     `json:"amount"`
	CapturedAt time.Time `json:"captured_at"`
}

const CaptureStatusCompleted = "COMPLETED"

// Completed reports whether money actually moved.
func (c *Capture) Completed() bool {
	return c != nil && c.Status == CaptureStatusCompleted
}

// Provider creates and captures orders.
type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*ProviderOrder, error)
	Capture(ctx context.Context, orderID string) (*Capture, error)
}

// Voider is implemented by providers that hold funds from creation until capture. Void
// releases an order that will never be captured.
type Voider interface {
	Void(ctx context.Context, orderID string) error
}

// Loader resolves the provider on first use. A failed load is retried on the next call.
type Loader func(ctx context.Context) (Provider, error)

// Static wraps an already constructed provider.
func Static(p Provider) Loader {
	return func(context.Context) (Provider, error) {
		return p, nil
	}
}

// Shared memoizes the first successful load for every session of the process. Failed
// loads are not cached.
func Shared(load Loader) Loader {
	var (
		mu     sync.Mutex
		loaded Provider
	)
	return func(ctx context.Context) (Provider, error) {
		mu.Lock()
		defer mu.Unlock()
		if loaded != nil {
			return loaded, nil
		}
		p, err := load(ctx)
		if err != nil {
			return nil, err
		}
		loaded = p
		return p, nil
	}
}
