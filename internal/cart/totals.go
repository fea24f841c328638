package cart

import (
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Totals are derived on demand and never persisted.
type Totals struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	Shipping             decimal.Decimal `json:"shipping"`
	Total                decimal.Decimal `json:"total"`
	IsFreeShipping       bool            `json:"isFreeShipping"`
	AmountToFreeShipping decimal.Decimal `json:"amountToFreeShipping"`
}

// ResolvedLine is a line joined with its catalog product.
type ResolvedLine struct {
	Line
	Product   catalog.Product `json:"product"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Resolved joins lines with the catalog, skipping lines whose product is gone.
func (e *Engine) Resolved() []ResolvedLine {
	out := make([]ResolvedLine, 0, len(e.lines))
	for _, l := range e.lines {
		product, ok := e.products.Product(l.ProductID)
		if !ok {
			continue
		}
		out = append(out, ResolvedLine{
			Line:      l,
			Product:   product,
			LineTotal: product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
		})
	}
	return out
}

// CalculateTotals computes subtotal, shipping and total for the given method. Lines
// whose product is no longer in the catalog contribute zero.
func (e *Engine) CalculateTotals(method enums.ShippingMethod) Totals {
	subtotal := decimal.Zero
	for _, rl := range e.Resolved() {
		subtotal = subtotal.Add(rl.LineTotal)
	}
	return computeTotals(subtotal, e.products.Shipping(), method)
}

func computeTotals(subtotal decimal.Decimal, shipping catalog.ShippingConfig, method enums.ShippingMethod) Totals {
	free := subtotal.GreaterThanOrEqual(shipping.FreeThreshold)
	cost := shipping.CostFor(method.OrDefault())
	remaining := shipping.FreeThreshold.Sub(subtotal)
	if free {
		cost = decimal.Zero
		remaining = decimal.Zero
	}
	return Totals{
		Subtotal:             subtotal,
		Shipping:             cost,
		Total:                subtotal.Add(cost),
		IsFreeShipping:       free,
		AmountToFreeShipping: remaining,
	}
}
