package checkout

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/internal/persistence"
	pkgcheckout "github.com/angelmondragon/storefront/pkg/checkout"
	"github.com/angelmondragon/storefront/pkg/enums"
)

// CartView is the part of the cart engine the checkout session drives.
type CartView interface {
	ItemCount() int
	CalculateTotals(method enums.ShippingMethod) cart.Totals
	Clear(ctx context.Context)
}

// TransitionRecorder observes step changes.
type TransitionRecorder interface {
	IncTransition(from, to string)
}

type Options struct {
	// ClearOnComplete wipes persisted checkout data after a successful order.
	ClearOnComplete bool
	Transitions     TransitionRecorder
}

// Session is the purchase-flow state machine of one shopper:
// cart -> shipping_form -> payment -> completed.
type Session struct {
	cart   CartView
	store  *persistence.Store
	events notify.Publisher
	opts   Options

	step enums.CheckoutStep
	data Data
}

var formValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// NewSession starts at the cart step with previously saved form data, if any.
func NewSession(ctx context.Context, c CartView, store *persistence.Store, events notify.Publisher, opts Options) (*Session, error) {
	if c == nil {
		return nil, fmt.Errorf("cart required")
	}
	if store == nil {
		return nil, fmt.Errorf("persistence store required")
	}
	if events == nil {
		events = notify.Discard
	}
	s := &Session{
		cart:   c,
		store:  store,
		events: events,
		opts:   opts,
		step:   enums.CheckoutStepCart,
		data:   DefaultData(),
	}
	if saved, ok := persistence.Load[Data](ctx, store, persistence.NamespaceCheckout); ok {
		s.data = saved.Normalized()
		if !s.data.ShippingMethod.IsValid() {
			s.data.ShippingMethod = enums.ShippingMethodStandard
		}
	}
	return s, nil
}

func (s *Session) Step() enums.CheckoutStep {
	return s.step
}

func (s *Session) Data() Data {
	return s.data
}

// Totals prices the cart with the selected shipping method.
func (s *Session) Totals() cart.Totals {
	return s.cart.CalculateTotals(s.data.ShippingMethod)
}

// Validate checks a form without touching session state.
func Validate(d Data) pkgcheckout.Violations {
	return pkgcheckout.FromValidator(formValidator.Struct(d.Normalized()))
}

// OpenCheckout moves from the cart (or a completed order) to the shipping form.
func (s *Session) OpenCheckout(ctx context.Context) enums.CheckoutOutcome {
	if s.step != enums.CheckoutStepCart && s.step != enums.CheckoutStepCompleted {
		return enums.CheckoutOutcomeNoop
	}
	if s.cart.ItemCount() == 0 {
		s.events.Publish(ctx, notify.Event{
			Kind:    enums.NoticeCheckoutCartEmpty,
			Level:   enums.NoticeError,
			Message: "El carrito está vacío",
		})
		return enums.CheckoutOutcomeCartEmpty
	}
	s.transition(ctx, enums.CheckoutStepShippingForm)
	return enums.CheckoutOutcomeOK
}

// SubmitShippingForm validates and stores the form, then moves to payment. On failure
// the session stays on the shipping form and the violations name each failed constraint.
func (s *Session) SubmitShippingForm(ctx context.Context, d Data) (enums.CheckoutOutcome, pkgcheckout.Violations) {
	if s.step != enums.CheckoutStepShippingForm {
		return enums.CheckoutOutcomeInvalidStep, nil
	}
	d = d.Normalized()
	if violations := Validate(d); len(violations) > 0 {
		s.events.Publish(ctx, notify.Event{
			Kind:    enums.NoticeCheckoutInvalid,
			Level:   enums.NoticeError,
			Message: "Por favor completa todos los campos requeridos",
			Data:    map[string]any{"fields": violations.Fields()},
		})
		return enums.CheckoutOutcomeValidationFailed, violations
	}

	s.data = d
	s.store.Save(ctx, persistence.NamespaceCheckout, s.data)
	s.transition(ctx, enums.CheckoutStepPayment)
	return enums.CheckoutOutcomeOK, nil
}

// GoBack steps back one level. Completed returns to the cart so the buyer can keep shopping.
func (s *Session) GoBack(ctx context.Context) enums.CheckoutOutcome {
	switch s.step {
	case enums.CheckoutStepPayment:
		s.transition(ctx, enums.CheckoutStepShippingForm)
	case enums.CheckoutStepShippingForm, enums.CheckoutStepCompleted:
		s.transition(ctx, enums.CheckoutStepCart)
	default:
		return enums.CheckoutOutcomeNoop
	}
	return enums.CheckoutOutcomeOK
}

// UpdateShippingMethod changes the shipping leg; not allowed once the order completed.
func (s *Session) UpdateShippingMethod(ctx context.Context, method enums.ShippingMethod) (enums.CheckoutOutcome, pkgcheckout.Violations) {
	if s.step == enums.CheckoutStepCompleted {
		return enums.CheckoutOutcomeInvalidStep, nil
	}
	parsed, err := enums.ParseShippingMethod(string(method))
	if err != nil {
		return enums.CheckoutOutcomeValidationFailed, pkgcheckout.Violations{{
			Field:      "shippingMethod",
			Constraint: "oneof",
			Message:    "must be one of: standard express",
		}}
	}
	if parsed == s.data.ShippingMethod {
		return enums.CheckoutOutcomeNoop, nil
	}
	from := s.data.ShippingMethod
	s.data.ShippingMethod = parsed
	s.store.Save(ctx, persistence.NamespaceCheckout, s.data)
	s.events.Publish(ctx, notify.Event{
		Kind:    enums.NoticeCheckoutShipping,
		Level:   enums.NoticeInfo,
		Message: "Método de envío actualizado",
		Data:    map[string]any{"from": string(from), "to": string(parsed)},
	})
	return enums.CheckoutOutcomeOK, nil
}

// ResumePayment returns a freshly restored session to the payment step, which is only
// possible while the cart has items and the saved form is still valid.
func (s *Session) ResumePayment(ctx context.Context) enums.CheckoutOutcome {
	if s.step != enums.CheckoutStepCart {
		return enums.CheckoutOutcomeInvalidStep
	}
	if s.cart.ItemCount() == 0 {
		return enums.CheckoutOutcomeCartEmpty
	}
	if len(Validate(s.data)) > 0 {
		return enums.CheckoutOutcomeValidationFailed
	}
	s.transition(ctx, enums.CheckoutStepPayment)
	return enums.CheckoutOutcomeOK
}

// CompleteOrder finishes a paid order: payment -> completed, the cart is cleared and,
// when configured, so is the saved form.
func (s *Session) CompleteOrder(ctx context.Context) enums.CheckoutOutcome {
	if s.step != enums.CheckoutStepPayment {
		return enums.CheckoutOutcomeInvalidStep
	}
	s.transition(ctx, enums.CheckoutStepCompleted)
	s.cart.Clear(ctx)
	if s.opts.ClearOnComplete {
		s.data = DefaultData()
		s.store.Clear(ctx, persistence.NamespaceCheckout)
	}
	s.events.Publish(ctx, notify.Event{
		Kind:    enums.NoticeCheckoutCompleted,
		Level:   enums.NoticeInfo,
		Message: "Pedido completado",
	})
	return enums.CheckoutOutcomeOK
}

func (s *Session) transition(ctx context.Context, to enums.CheckoutStep) {
	from := s.step
	s.step = to
	if s.opts.Transitions != nil {
		s.opts.Transitions.IncTransition(string(from), string(to))
	}
	s.events.Publish(ctx, notify.Event{
		Kind:    enums.NoticeCheckoutStep,
		Level:   enums.NoticeInfo,
		Message: "checkout " + string(from) + " -> " + string(to),
		Data:    map[string]any{"from": string(from), "to": string(to)},
	})
}
