// Package storefront holds the application context of each shopper session: the shared
// catalog plus that shopper's cart, checkout and payment bridge, wired to one
// notification bus.
package storefront

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/internal/payment"
	"github.com/angelmondragon/storefront/internal/persistence"
	"github.com/angelmondragon/storefront/pkg/enums"
)

// Session is one shopper's application context. All access goes through Registry.Do,
// which serializes calls per session.
type Session struct {
	id string

	mu       sync.Mutex
	ready    bool
	refs     int
	lastSeen time.Time

	catalog  *catalog.Catalog
	bus      *notify.Bus
	cart     *cart.Engine
	checkout *checkout.Session
	payment  *payment.Bridge
}

func (s *Session) ID() string { return s.id }

func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

func (s *Session) Cart() *cart.Engine { return s.cart }

func (s *Session) Checkout() *checkout.Session { return s.checkout }

func (s *Session) Payment() *payment.Bridge { return s.payment }

// View is the read model returned to the presentation layer after every operation.
type View struct {
	SessionID      string               `json:"sessionId"`
	Step           enums.CheckoutStep   `json:"step"`
	ItemCount      int                  `json:"itemCount"`
	Lines          []cart.ResolvedLine  `json:"lines"`
	Totals         cart.Totals          `json:"totals"`
	ShippingMethod enums.ShippingMethod `json:"shippingMethod"`
	Checkout       checkout.Data        `json:"checkout"`
	PendingOrderID string               `json:"pendingOrderId,omitempty"`
}

func (s *Session) View() View {
	data := s.checkout.Data()
	return View{
		SessionID:      s.id,
		Step:           s.checkout.Step(),
		ItemCount:      s.cart.ItemCount(),
		Lines:          s.cart.Resolved(),
		Totals:         s.checkout.Totals(),
		ShippingMethod: data.ShippingMethod,
		Checkout:       data,
		PendingOrderID: s.payment.PendingOrderID(),
	}
}

func (s *Session) init(ctx context.Context, d *Deps) error {
	bus := notify.NewBus(notify.LogSubscriber(d.Logger))
	if d.Metrics != nil {
		bus.Subscribe(notify.MetricsSubscriber(d.Metrics))
	}

	var failures persistence.FailureRecorder
	if d.Metrics != nil {
		failures = d.Metrics
	}
	store := persistence.NewStore(d.Backend, s.id, d.Logger, failures)

	engine, err := cart.NewEngine(ctx, d.Catalog, store, bus)
	if err != nil {
		return fmt.Errorf("cart: %w", err)
	}

	checkoutOpts := d.Checkout
	if checkoutOpts.Transitions == nil && d.Metrics != nil {
		checkoutOpts.Transitions = d.Metrics
	}
	flow, err := checkout.NewSession(ctx, engine, store, bus, checkoutOpts)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	var recorder payment.Recorder
	if d.Metrics != nil {
		recorder = d.Metrics
	}
	bridge, err := payment.NewBridge(engine, flow, d.Loader, bus, payment.Options{
		SessionID: s.id,
		Order:     d.Order,
		Timeout:   d.PaymentTimeout,
		Receipts:  d.Receipts,
		Metrics:   recorder,
		Store:     store,
		Logger:    d.Logger,
		Now:       d.Now,
	})
	if err != nil {
		return fmt.Errorf("payment: %w", err)
	}
	bus.Subscribe(bridge)
	bridge.Resume(ctx, func(ctx context.Context) bool {
		return flow.ResumePayment(ctx) == enums.CheckoutOutcomeOK
	})

	s.catalog = d.Catalog
	s.bus = bus
	s.cart = engine
	s.checkout = flow
	s.payment = bridge
	s.ready = true
	return nil
}
