package enums

// CheckoutOutcome is the discriminated result of a checkout session operation.
type CheckoutOutcome string

const (
	CheckoutOutcomeOK               CheckoutOutcome = "ok"
	CheckoutOutcomeCartEmpty        CheckoutOutcome = "cart_empty"
	CheckoutOutcomeValidationFailed CheckoutOutcome = "validation_failed"
	CheckoutOutcomeInvalidStep      CheckoutOutcome = "invalid_step"
	CheckoutOutcomeNoop             CheckoutOutcome = "noop"
)

// String implements fmt.Stringer.
func (o CheckoutOutcome) String() string {
	return string(o)
}

// Succeeded reports whether the operation took effect.
func (o CheckoutOutcome) Succeeded() bool {
	return o == CheckoutOutcomeOK
}
