package payment

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	maxItemDescription = 127
	fallbackPostalCode = "000000"
)

// Money is a provider-facing amount formatted with the decimals of its currency.
type Money struct {
	CurrencyCode enums.Currency `json:"currency_code"`
	Value        string         `json:"value"`
}

func newMoney(currency enums.Currency, amount decimal.Decimal) Money {
	return Money{CurrencyCode: currency, Value: currency.Format(amount)}
}

// Decimal parses Value; malformed values read as zero.
func (m Money) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(m.Value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return m.CurrencyCode.ToMinor(m.Decimal())
}

type Item struct {
	ProductID   string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SKU         string `json:"sku,omitempty"`
	UnitAmount  Money  `json:"unit_amount"`
	Quantity    int    `json:"quantity"`
}

type Breakdown struct {
	ItemTotal Money `json:"item_total"`
	Shipping  Money `json:"shipping"`
}

type Amount struct {
	Money
	Breakdown Breakdown `json:"breakdown"`
}

// Payer is the buyer contact forwarded to the provider.
type Payer struct {
	Email     string `json:"email_address"`
	FirstName string `json:"given_name"`
	LastName  string `json:"surname"`
	Phone     string `json:"phone,omitempty"`
}

// OrderRequest is the provider-agnostic order descriptor.
type OrderRequest struct {
	ReferenceID        string                `json:"reference_id,omitempty"`
	Description        string                `json:"description"`
	Amount             Amount                `json:"amount"`
	Items              []Item                `json:"items"`
	ShippingAddress    types.ShippingAddress `json:"shipping_address"`
	ShippingMethod     enums.ShippingMethod  `json:"shipping_method"`
	Payer              Payer                 `json:"payer"`
	BrandName          string                `json:"brand_name"`
	Locale             string                `json:"locale"`
	ShippingPreference string                `json:"shipping_preference"`
	// SourceToken is the tokenized payment method from the buyer's browser, when the
	// provider needs one.
	SourceToken string `json:"-"`
}

// OrderOptions carries the merchant metadata stamped on every order.
type OrderOptions struct {
	Currency           enums.Currency
	CountryCode        string
	BrandName          string
	Locale             string
	ShippingPreference string
	Description        string
}

// BuildOrderRequest turns resolved cart lines, the totals snapshot and the checkout form
// into an order. Item total and shipping come from the same totals the shopper saw, and
// the request is rejected when the items do not add up to that snapshot to the cent.
func BuildOrderRequest(lines []cart.ResolvedLine, totals cart.Totals, data checkout.Data, opts OrderOptions) (OrderRequest, error) {
	if len(lines) == 0 {
		return OrderRequest{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	currency := opts.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}

	items := make([]Item, 0, len(lines))
	itemTotal := decimal.Zero
	for _, rl := range lines {
		unit := rl.Product.Price.Round(2)
		items = append(items, Item{
			ProductID:   string(rl.ProductID),
			Name:        rl.Product.Name,
			Description: truncate(rl.Product.Description, maxItemDescription),
			SKU:         rl.Product.SKU,
			UnitAmount:  newMoney(currency, unit),
			Quantity:    rl.Quantity,
		})
		itemTotal = itemTotal.Add(unit.Mul(decimal.NewFromInt(int64(rl.Quantity))))
	}

	shipping := totals.Shipping.Round(2)
	total := itemTotal.Add(shipping)
	if !itemTotal.Equal(totals.Subtotal.Round(2)) || !total.Equal(totals.Total.Round(2)) {
		return OrderRequest{}, pkgerrors.New(pkgerrors.CodeInternal, "order breakdown does not match cart totals").WithDetails(map[string]any{
			"item_total": itemTotal.StringFixed(2),
			"subtotal":   totals.Subtotal.StringFixed(2),
			"total":      totals.Total.StringFixed(2),
		})
	}

	data = data.Normalized()
	postal := data.PostalCode
	if postal == "" {
		postal = fallbackPostalCode
	}

	return OrderRequest{
		Description: opts.Description,
		Amount: Amount{
			Money: newMoney(currency, total),
			Breakdown: Breakdown{
				ItemTotal: newMoney(currency, itemTotal),
				Shipping:  newMoney(currency, shipping),
			},
		},
		Items: items,
		ShippingAddress: types.ShippingAddress{
			FullName:    data.FullName(),
			Line1:       data.Address,
			Line2:       data.Apartment,
			City:        data.City,
			PostalCode:  postal,
			CountryCode: strings.ToUpper(opts.CountryCode),
		},
		ShippingMethod: data.ShippingMethod,
		Payer: Payer{
			Email:     data.Email,
			FirstName: data.FirstName,
			LastName:  data.LastName,
			Phone:     data.Phone,
		},
		BrandName:          opts.BrandName,
		Locale:             opts.Locale,
		ShippingPreference: opts.ShippingPreference,
	}, nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
