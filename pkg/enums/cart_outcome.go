package enums

// CartOutcome is the discriminated result of a cart operation.
type CartOutcome string

const (
	CartOutcomeOK                CartOutcome = "ok"
	CartOutcomeUnavailable       CartOutcome = "unavailable"
	CartOutcomeStockLimitReached CartOutcome = "stock_limit_reached"
	CartOutcomeRemoved           CartOutcome = "removed"
	CartOutcomeNoop              CartOutcome = "noop"
)

var validCartOutcomes = []CartOutcome{
	CartOutcomeOK,
	CartOutcomeUnavailable,
	CartOutcomeStockLimitReached,
	CartOutcomeRemoved,
	CartOutcomeNoop,
}

// String implements fmt.Stringer.
func (o CartOutcome) String() string {
	return string(o)
}

// IsValid reports whether the value is a known CartOutcome.
func (o CartOutcome) IsValid() bool {
	for _, candidate := range validCartOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// Mutated reports whether the outcome changed the cart.
func (o CartOutcome) Mutated() bool {
	return o == CartOutcomeOK || o == CartOutcomeRemoved
}
