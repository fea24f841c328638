package catalog

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/shopspring/decimal"
)

// Catalog is the immutable product and category list for the lifetime of the process.
type Catalog struct {
	products   []Product
	index      map[ProductID]int
	categories []Category
	shipping   ShippingConfig
}

// New validates a document and builds a Catalog. Prices are rounded to cents so
// totals and payment breakdowns agree.
func New(doc Document, defaults ShippingConfig) (*Catalog, error) {
	if issues := Lint(doc).Errors(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid catalog: %s", issues.String())
	}

	products := make([]Product, len(doc.Products))
	index := make(map[ProductID]int, len(doc.Products))
	for i, p := range doc.Products {
		p.Price = p.Price.Round(2)
		if p.CompareAtPrice != nil {
			rounded := p.CompareAtPrice.Round(2)
			p.CompareAtPrice = &rounded
		}
		products[i] = p
		index[p.ID] = i
	}

	categories := make([]Category, len(doc.Categories))
	copy(categories, doc.Categories)

	return &Catalog{
		products:   products,
		index:      index,
		categories: categories,
		shipping:   doc.ShippingConfig.apply(defaults),
	}, nil
}

// DefaultShipping parses the configured shipping legs.
func DefaultShipping(cfg config.ShippingConfig) (ShippingConfig, error) {
	cost, err := parseAmount("shipping cost", cfg.Cost)
	if err != nil {
		return ShippingConfig{}, err
	}
	threshold, err := parseAmount("free shipping threshold", cfg.FreeThreshold)
	if err != nil {
		return ShippingConfig{}, err
	}
	express, err := parseAmount("express shipping cost", cfg.ExpressCost)
	if err != nil {
		return ShippingConfig{}, err
	}
	return ShippingConfig{Cost: cost, FreeThreshold: threshold, ExpressCost: express}, nil
}

func parseAmount(label, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", label, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", label)
	}
	return d, nil
}

// Product looks up a product by id.
func (c *Catalog) Product(id ProductID) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Products returns the products in document order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Categories() []Category {
	if c == nil {
		return nil
	}
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Shipping returns the effective shipping configuration.
func (c *Catalog) Shipping() ShippingConfig {
	if c == nil {
		return ShippingConfig{}
	}
	return c.shipping
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}
