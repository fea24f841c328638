package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/internal/persistence"
	pkgcheckout "github.com/angelmondragon/storefront/pkg/checkout"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const defaultTimeout = 30 * time.Second

var (
	errNotAtPayment = pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not at the payment step")
	errInFlight     = pkgerrors.New(pkgerrors.CodeStateConflict, "a payment is already in progress")
	errUnknownOrder = pkgerrors.New(pkgerrors.CodeStateConflict, "order does not match the pending payment")
	errOrderStale   = pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed after the order was created")
)

// CartSnapshot is the read side of the cart the bridge prices.
type CartSnapshot interface {
	Resolved() []cart.ResolvedLine
}

// CheckoutFlow is the checkout session as seen by the bridge.
type CheckoutFlow interface {
	Step() enums.CheckoutStep
	Data() checkout.Data
	Totals() cart.Totals
	CompleteOrder(ctx context.Context) enums.CheckoutOutcome
}

// Recorder observes payment outcomes and provider latency.
type Recorder interface {
	IncPayment(provider, outcome string)
	ObserveProviderCall(provider, operation string, duration time.Duration)
}

type Options struct {
	SessionID string
	Order     OrderOptions
	// Timeout bounds every provider round trip.
	Timeout  time.Duration
	Receipts ReceiptRecorder
	Metrics  Recorder
	// Store keeps the pending order across session eviction and restarts.
	Store  *persistence.Store
	Logger *logger.Logger
	Now    func() time.Time
}

// Result is the outcome of one bridge call.
type Result struct {
	Outcome enums.PaymentOutcome `json:"outcome"`
	OrderID string               `json:"orderId,omitempty"`
	Err     error                `json:"-"`
}

// Bridge drives the provider's order lifecycle for one checkout session and maps its
// callbacks back onto the cart and checkout.
type Bridge struct {
	cart     CartSnapshot
	checkout CheckoutFlow
	load     Loader
	events   notify.Publisher
	opts     Options

	provider Provider
	pending  *pendingOrder
}

// pendingOrder is the order awaiting approval. fingerprint pins the items, amount and
// shipping method it was created for.
type pendingOrder struct {
	id          string
	fingerprint string
}

// savedOrder is the persisted form of a pending order.
type savedOrder struct {
	OrderID     string    `json:"orderId"`
	Provider    string    `json:"provider"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewBridge(c CartSnapshot, flow CheckoutFlow, load Loader, events notify.Publisher, opts Options) (*Bridge, error) {
	if c == nil || flow == nil {
		return nil, errors.New("cart and checkout are required")
	}
	if load == nil {
		return nil, errors.New("provider loader is required")
	}
	if events == nil {
		events = notify.Discard
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bridge{cart: c, checkout: flow, load: load, events: events, opts: opts}, nil
}

// PendingOrderID is the order awaiting approval, if any.
func (b *Bridge) PendingOrderID() string {
	if b.pending == nil || b.checkout.Step() != enums.CheckoutStepPayment {
		return ""
	}
	return b.pending.id
}

// Notify keeps the pending order in step with the cart. Subscribed to the session bus,
// it voids the order as soon as the cart, the shipping method or the step changes
// under it.
func (b *Bridge) Notify(ctx context.Context, e notify.Event) {
	if strings.HasPrefix(string(e.Kind), "payment.") {
		return
	}
	b.reconcile(ctx)
}

// Resume reloads a pending order saved by an earlier instance of this session. resume
// must bring the checkout back to the payment step; when it cannot, the order is voided.
func (b *Bridge) Resume(ctx context.Context, resume func(ctx context.Context) bool) {
	if b.opts.Store == nil || b.pending != nil {
		return
	}
	saved, ok := persistence.Load[savedOrder](ctx, b.opts.Store, persistence.NamespacePayment)
	if !ok || saved.OrderID == "" {
		return
	}
	b.pending = &pendingOrder{id: saved.OrderID, fingerprint: saved.Fingerprint}
	if resume == nil || !resume(ctx) {
		b.release(ctx)
		return
	}
	b.reconcile(ctx)
}

// BuildOrderRequest prices the current cart and checkout form.
func (b *Bridge) BuildOrderRequest() (OrderRequest, error) {
	return BuildOrderRequest(b.cart.Resolved(), b.checkout.Totals(), b.checkout.Data(), b.opts.Order)
}

// CreateOrder opens a provider order for the current cart. Only one order may be in
// flight; it is released by approval, cancellation or an error callback.
func (b *Bridge) CreateOrder(ctx context.Context, sourceToken string) Result {
	if b.checkout.Step() != enums.CheckoutStepPayment {
		return Result{Outcome: enums.PaymentOutcomeIgnored, Err: errNotAtPayment}
	}
	b.reconcile(ctx)
	if b.pending != nil {
		return Result{Outcome: enums.PaymentOutcomeIgnored, OrderID: b.pending.id, Err: errInFlight}
	}

	provider, err := b.ensureProvider(ctx)
	if err != nil {
		return b.fail(ctx, "", enums.NoticePaymentUnavailable, "Error al cargar el proveedor de pago", err)
	}

	req, err := b.BuildOrderRequest()
	if err != nil {
		return b.fail(ctx, "", enums.NoticePaymentFailed, "Error al procesar el pago", err)
	}
	if err := pkgcheckout.ValidateStock(stockInputs(b.cart.Resolved())); err != nil {
		return b.fail(ctx, "", enums.NoticePaymentFailed, "Stock máximo alcanzado", err)
	}
	req.ReferenceID = b.opts.SessionID
	req.SourceToken = strings.TrimSpace(sourceToken)

	callCtx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()
	started := b.opts.Now()
	order, err := provider.CreateOrder(callCtx, req)
	b.observe(provider, "create_order", started)
	if err != nil {
		return b.fail(ctx, "", enums.NoticePaymentFailed, "Error al procesar el pago", providerError(err, "create order"))
	}
	if order == nil || order.ID == "" {
		return b.fail(ctx, "", enums.NoticePaymentFailed, "Error al procesar el pago", pkgerrors.New(pkgerrors.CodeDependency, "provider returned no order id"))
	}

	b.hold(ctx, order.ID, fingerprint(req))
	b.count(enums.PaymentOutcomeCreated)
	b.events.Publish(ctx, notify.Event{
		Kind:    enums.NoticePaymentCreated,
		Level:   enums.NoticeInfo,
		Message: "Orden de pago creada",
		Data:    map[string]any{"order_id": order.ID, "total": req.Amount.Value},
	})
	return Result{Outcome: enums.PaymentOutcomeCreated, OrderID: order.ID}
}

// OnApproved captures the approved order before anything is treated as paid. A call
// after the order completed, or for an order that is not pending, changes nothing and
// raises no notice. An order whose cart changed since creation is voided, not captured.
func (b *Bridge) OnApproved(ctx context.Context, orderID string) Result {
	if b.checkout.Step() != enums.CheckoutStepPayment {
		return Result{Outcome: enums.PaymentOutcomeIgnored, OrderID: orderID, Err: errNotAtPayment}
	}
	if !b.isPending(orderID) {
		return Result{Outcome: enums.PaymentOutcomeIgnored, OrderID: orderID, Err: errUnknownOrder}
	}
	req, err := b.BuildOrderRequest()
	if err != nil || fingerprint(req) != b.pending.fingerprint {
		b.discardStale(ctx)
		return Result{Outcome: enums.PaymentOutcomeIgnored, OrderID: orderID, Err: errOrderStale}
	}

	provider, err := b.ensureProvider(ctx)
	if err != nil {
		return b.fail(ctx, orderID, enums.NoticePaymentUnavailable, "Error al cargar el proveedor de pago", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()
	started := b.opts.Now()
	capture, err := provider.Capture(callCtx, orderID)
	b.observe(provider, "capture", started)
	if err != nil {
		return b.fail(ctx, orderID, enums.NoticePaymentFailed, "Error al procesar el pago", providerError(err, "capture order"))
	}
	if !capture.Completed() {
		status := ""
		if capture != nil {
			status = capture.Status
		}
		return b.fail(ctx, orderID, enums.NoticePaymentFailed, "Error al procesar el pago",
			pkgerrors.New(pkgerrors.CodeDependency, "capture not completed").WithDetails(map[string]any{"status": status}))
	}

	if capture.OrderID == "" {
		capture.OrderID = orderID
	}
	receipt := newReceipt(b.opts.SessionID, provider.Name(), req, capture, b.opts.Now())
	b.forget(ctx)

	b.checkout.CompleteOrder(ctx)
	b.record(ctx, receipt)
	b.count(enums.PaymentOutcomeApproved)
	b.events.Publish(ctx, notify.Event{
		Kind:    enums.NoticePaymentSucceeded,
		Level:   enums.NoticeSuccess,
		Message: "¡Pago completado exitosamente!",
		Data:    map[string]any{"order_id": orderID, "capture_id": capture.CaptureID},
	})
	return Result{Outcome: enums.PaymentOutcomeApproved, OrderID: orderID}
}

// OnCancelled voids and releases the pending order; cart and checkout data stay as
// they were. Callbacks for any other order are ignored without a notice.
func (b *Bridge) OnCancelled(ctx context.Context, orderID string) Result {
	if b.checkout.Step() != enums.CheckoutStepPayment {
		return Result{Outcome: enums.PaymentOutcomeIgnored, OrderID: orderID, Err: errNotAtPayment}
	}
	if !b.isPending(orderID) {
		return Result{Outcome: enums.PaymentOutcomeIgnored, OrderID: orderID, Err: errUnknownOrder}
	}
	b.release(ctx)
	b.count(enums.PaymentOutcomeCancelled)
	b.events.Publish(ctx, notify.Event{
		Kind:    enums.NoticePaymentCancelled,
		Level:   enums.NoticeWarning,
		Message: "Pago cancelado",
		Data:    map[string]any{"order_id": orderID},
	})
	return Result{Outcome: enums.PaymentOutcomeCancelled, OrderID: orderID}
}

// OnError reports a provider-side failure for the pending order and releases it.
func (b *Bridge) OnError(ctx context.Context, orderID string, cause error) Result {
	if b.checkout.Step() != enums.CheckoutStepPayment {
		return Result{Outcome: enums.PaymentOutcomeIgnored, OrderID: orderID, Err: errNotAtPayment}
	}
	if !b.isPending(orderID) {
		return Result{Outcome: enums.PaymentOutcomeIgnored, OrderID: orderID, Err: errUnknownOrder}
	}
	if cause == nil {
		cause = errors.New("payment provider reported an error")
	}
	return b.fail(ctx, orderID, enums.NoticePaymentErrored, "Error con el proveedor de pago. Intenta de nuevo.",
		pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "payment provider error"))
}

func (b *Bridge) ensureProvider(ctx context.Context) (Provider, error) {
	if b.provider != nil {
		return b.provider, nil
	}
	p, err := b.load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
	}
	if p == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment provider unavailable")
	}
	b.provider = p
	return p, nil
}

func (b *Bridge) isPending(orderID string) bool {
	return b.pending != nil && orderID != "" && b.pending.id == orderID
}

// reconcile voids the pending order once the shopper left the payment step or the
// order no longer matches what the cart would charge.
func (b *Bridge) reconcile(ctx context.Context) {
	if b.pending == nil {
		return
	}
	if b.checkout.Step() != enums.CheckoutStepPayment {
		b.release(ctx)
		return
	}
	req, err := b.BuildOrderRequest()
	if err != nil || fingerprint(req) != b.pending.fingerprint {
		b.discardStale(ctx)
	}
}

func (b *Bridge) discardStale(ctx context.Context) {
	orderID := b.pending.id
	b.release(ctx)
	b.events.Publish(ctx, notify.Event{
		Kind:    enums.NoticePaymentStale,
		Level:   enums.NoticeWarning,
		Message: "Tu carrito cambió. Confirma el pago nuevamente.",
		Data:    map[string]any{"order_id": orderID},
	})
}

func (b *Bridge) hold(ctx context.Context, orderID, sum string) {
	b.pending = &pendingOrder{id: orderID, fingerprint: sum}
	if b.opts.Store != nil {
		b.opts.Store.Save(ctx, persistence.NamespacePayment, savedOrder{
			OrderID:     orderID,
			Provider:    b.providerName(),
			Fingerprint: sum,
			CreatedAt:   b.opts.Now().UTC(),
		})
	}
}

// forget drops the pending order without touching the provider.
func (b *Bridge) forget(ctx context.Context) {
	b.pending = nil
	if b.opts.Store != nil {
		b.opts.Store.Clear(ctx, persistence.NamespacePayment)
	}
}

// release drops the pending order and voids it at providers that hold funds until
// capture. A failed void is logged; the authorization then lapses at the provider.
func (b *Bridge) release(ctx context.Context) {
	if b.pending == nil {
		return
	}
	orderID := b.pending.id
	b.forget(ctx)

	provider, err := b.ensureProvider(ctx)
	if err != nil {
		b.opts.Logger.Error(b.opts.Logger.WithField(ctx, "order_id", orderID), "payment.void_skipped", err)
		return
	}
	voider, ok := provider.(Voider)
	if !ok {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()
	started := b.opts.Now()
	err = voider.Void(callCtx, orderID)
	b.observe(provider, "void", started)
	if err != nil {
		b.opts.Logger.Error(b.opts.Logger.WithField(ctx, "order_id", orderID), "payment.void_failed", err)
	}
}

func (b *Bridge) fail(ctx context.Context, orderID string, kind enums.NoticeKind, msg string, err error) Result {
	b.release(ctx)
	b.count(enums.PaymentOutcomeErrored)
	logCtx := b.opts.Logger.WithFields(ctx, map[string]any{"order_id": orderID, "notice": string(kind)})
	b.opts.Logger.Error(logCtx, "payment.failed", err)
	b.events.Publish(ctx, notify.Event{
		Kind:    kind,
		Level:   enums.NoticeError,
		Message: msg,
		Data:    map[string]any{"order_id": orderID, "retryable": pkgerrors.Retryable(err)},
	})
	return Result{Outcome: enums.PaymentOutcomeErrored, OrderID: orderID, Err: err}
}

// providerError keeps the code of a typed provider error that retrying cannot fix, such
// as a rejected card token; anything else is a dependency failure.
func providerError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil && !pkgerrors.Retryable(typed) {
		return pkgerrors.Wrap(typed.Code(), err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

// fingerprint identifies what an order charges: currency, amount, shipping method and
// every item with its quantity and unit price.
func fingerprint(req OrderRequest) string {
	var sb strings.Builder
	sb.WriteString(string(req.Amount.CurrencyCode))
	sb.WriteString("|" + req.Amount.Value)
	sb.WriteString("|" + string(req.ShippingMethod))
	for _, item := range req.Items {
		sb.WriteString("|" + item.ProductID + ":" + strconv.Itoa(item.Quantity) + ":" + item.UnitAmount.Value)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func (b *Bridge) record(ctx context.Context, r Receipt) {
	if b.opts.Receipts == nil {
		return
	}
	if err := b.opts.Receipts.Record(ctx, r); err != nil {
		logCtx := b.opts.Logger.WithFields(ctx, pkgerrors.Dump(err).Fields())
		b.opts.Logger.Error(logCtx, "receipt.record_failed", err)
	}
}

func (b *Bridge) count(outcome enums.PaymentOutcome) {
	if b.opts.Metrics == nil {
		return
	}
	b.opts.Metrics.IncPayment(b.providerName(), string(outcome))
}

func (b *Bridge) observe(p Provider, op string, started time.Time) {
	if b.opts.Metrics == nil {
		return
	}
	b.opts.Metrics.ObserveProviderCall(p.Name(), op, b.opts.Now().Sub(started))
}

func (b *Bridge) providerName() string {
	if b.provider == nil {
		return "unloaded"
	}
	return b.provider.Name()
}

func stockInputs(lines []cart.ResolvedLine) []pkgcheckout.StockCheckInput {
	out := make([]pkgcheckout.StockCheckInput, 0, len(lines))
	for _, rl := range lines {
		out = append(out, pkgcheckout.StockCheckInput{
			ProductID:   string(rl.ProductID),
			ProductName: rl.Product.Name,
			Stock:       rl.Product.Stock,
			Quantity:    rl.Quantity,
		})
	}
	return out
}
