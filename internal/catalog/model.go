package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// ProductID identifies a product. Catalog documents may carry it as a JSON number or string.
type ProductID string

// UnmarshalJSON accepts 7, "7" and "sku-7".
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string {
	return string(id)
}

type Product struct {
	ID             ProductID        `json:"id"`
	SKU            string           `json:"sku,omitempty"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	Stock          int              `json:"stock"`
	Category       string           `json:"category"`
	Subcategory    string           `json:"subcategory,omitempty"`
	Image          string           `json:"image,omitempty"`
	Featured       bool             `json:"featured,omitempty"`
	Rating         *float64         `json:"rating,omitempty"`
	ReviewCount    *int             `json:"reviewCount,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compareAtPrice,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
}

// Available reports whether at least one unit can be added to a cart.
func (p Product) Available() bool {
	return p.Stock > 0
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// ShippingConfig holds the shipping legs used by cart totals.
type ShippingConfig struct {
	Cost          decimal.Decimal `json:"cost"`
	FreeThreshold decimal.Decimal `json:"freeThreshold"`
	ExpressCost   decimal.Decimal `json:"expressCost"`
}

// CostFor returns the shipping cost of a method before the free-shipping rule applies.
func (s ShippingConfig) CostFor(method enums.ShippingMethod) decimal.Decimal {
	if method == enums.ShippingMethodExpress {
		return s.ExpressCost
	}
	return s.Cost
}

// ShippingOverride is the optional shippingConfig block of a catalog document; present
// fields replace the configured defaults.
type ShippingOverride struct {
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	FreeThreshold *decimal.Decimal `json:"freeThreshold,omitempty"`
	ExpressCost   *decimal.Decimal `json:"expressCost,omitempty"`
}

func (o *ShippingOverride) apply(base ShippingConfig) ShippingConfig {
	if o == nil {
		return base
	}
	if o.Cost != nil {
		base.Cost = *o.Cost
	}
	if o.FreeThreshold != nil {
		base.FreeThreshold = *o.FreeThreshold
	}
	if o.ExpressCost != nil {
		base.ExpressCost = *o.ExpressCost
	}
	return base
}

// Document is the catalog source format.
type Document struct {
	Products       []Product         `json:"products"`
	Categories     []Category        `json:"categories"`
	ShippingConfig *ShippingOverride `json:"shippingConfig,omitempty"`
}
