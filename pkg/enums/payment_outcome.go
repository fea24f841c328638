package enums

// PaymentOutcome labels how a payment attempt ended.
type PaymentOutcome string

const (
	PaymentOutcomeCreated   PaymentOutcome = "created"
	PaymentOutcomeApproved  PaymentOutcome = "approved"
	PaymentOutcomeCancelled PaymentOutcome = "cancelled"
	PaymentOutcomeErrored   PaymentOutcome = "errored"
	PaymentOutcomeIgnored   PaymentOutcome = "ignored"
)

var validPaymentOutcomes = []PaymentOutcome{
	PaymentOutcomeCreated,
	PaymentOutcomeApproved,
	PaymentOutcomeCancelled,
	PaymentOutcomeErrored,
	PaymentOutcomeIgnored,
}

// String implements fmt.Stringer.
func (o PaymentOutcome) String() string {
	return string(o)
}

// IsValid reports whether the value is a known PaymentOutcome.
func (o PaymentOutcome) IsValid() bool {
	for _, candidate := range validPaymentOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}
