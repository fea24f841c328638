// Package sandbox is an in-process payment provider for development and tests. It
// accepts every order and captures it unless the source token asks for a decline.
package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/internal/payment"
)

const Name = "sandbox"

// Source tokens that simulate provider failures.
const (
	TokenDeclined = "sandbox-declined"
	TokenError    = "sandbox-error"
)

const (
	statusCreated  = "CREATED"
	statusDeclined = "DECLINED"
	statusVoided   = "VOIDED"
)

type order struct {
	request  payment.OrderRequest
	captured *payment.Capture
	voided   bool
}

type Provider struct {
	mu     sync.Mutex
	orders map[string]*order
	now    func() time.Time
}

func New() *Provider {
	return &Provider{orders: map[string]*order{}, now: time.Now}
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.ProviderOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.SourceToken == TokenError {
		return nil, fmt.Errorf("sandbox: order creation failed")
	}
	id := "SBX-" + uuid.NewString()
	p.mu.Lock()
	p.orders[id] = &order{request: req}
	p.mu.Unlock()
	return &payment.ProviderOrder{ID: id, Status: statusCreated}, nil
}

// Capture completes a created order once; repeated captures return the first result.
func (p *Provider) Capture(ctx context.Context, orderID string) (*payment.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("sandbox: unknown order %q", orderID)
	}
	if o.captured != nil {
		return o.captured, nil
	}
	if o.voided {
		return nil, fmt.Errorf("sandbox: order %q was voided", orderID)
	}

	status := payment.CaptureStatusCompleted
	if o.request.SourceToken == TokenDeclined {
		status = statusDeclined
	}
	o.captured = &payment.Capture{
		OrderID:    orderID,
		CaptureID:  "CAP-" + uuid.NewString(),
		Status:     status,
		Payer:      o.request.Payer,
		Amount:     o.request.Amount.Money,
		CapturedAt: p.now().UTC(),
	}
	return o.captured, nil
}

// Void releases a created order. Captured orders cannot be voided; voiding twice is a no-op.
func (p *Provider) Void(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok {
		return fmt.Errorf("sandbox: unknown order %q", orderID)
	}
	if o.captured != nil {
		return fmt.Errorf("sandbox: order %q already captured", orderID)
	}
	o.voided = true
	return nil
}

// Status reports the state of an order: CREATED, VOIDED or the capture status.
func (p *Provider) Status(orderID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.orders[orderID]
	switch {
	case !ok:
		return ""
	case o.captured != nil:
		return o.captured.Status
	case o.voided:
		return statusVoided
	default:
		return statusCreated
	}
}

// Orders reports how many orders were created.
func (p *Provider) Orders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders)
}
