package enums

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the ISO 4217 code orders are charged and receipts are kept in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyJPY Currency = "JPY"
)

// minorDigits maps each supported currency to the digits of its minor unit.
var minorDigits = map[Currency]int32{
	CurrencyUSD: 2,
	CurrencyEUR: 2,
	CurrencyJPY: 0,
}

func (c Currency) String() string {
	return string(c)
}

func (c Currency) IsValid() bool {
	_, ok := minorDigits[c]
	return ok
}

// Exponent is the number of decimals of the currency. Unknown codes use 2.
func (c Currency) Exponent() int32 {
	if digits, ok := minorDigits[c]; ok {
		return digits
	}
	return 2
}

// ToMinor converts a major-unit amount into minor units, rounding half away from zero.
func (c Currency) ToMinor(amount decimal.Decimal) int64 {
	return amount.Shift(c.Exponent()).Round(0).IntPart()
}

// FromMinor converts minor units back into a major-unit amount.
func (c Currency) FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -c.Exponent())
}

// Format renders amount with exactly the currency's number of decimals.
func (c Currency) Format(amount decimal.Decimal) string {
	return amount.StringFixed(c.Exponent())
}

func ParseCurrency(value string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	return c, nil
}
