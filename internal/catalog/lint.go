package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a catalog document.
type Issue struct {
	Severity  Severity  `json:"severity"`
	ProductID ProductID `json:"product_id,omitempty"`
	Field     string    `json:"field"`
	Message   string    `json:"message"`
}

func (i Issue) String() string {
	if i.ProductID == "" {
		return fmt.Sprintf("%s: %s", i.Field, i.Message)
	}
	return fmt.Sprintf("product %s %s: %s", i.ProductID, i.Field, i.Message)
}

type Issues []Issue

// Errors keeps only the issues that make the document unusable.
func (is Issues) Errors() Issues {
	var out Issues
	for _, issue := range is {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

func (is Issues) String() string {
	parts := make([]string, 0, len(is))
	for _, issue := range is {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}

// Lint checks a catalog document. Errors block loading; warnings (unknown category,
// missing sku, compare price not above price) are reported only.
func Lint(doc Document) Issues {
	var issues Issues
	add := func(sev Severity, id ProductID, field, msg string) {
		issues = append(issues, Issue{Severity: sev, ProductID: id, Field: field, Message: msg})
	}

	categories := make(map[string]struct{}, len(doc.Categories))
	for _, c := range doc.Categories {
		if strings.TrimSpace(c.ID) == "" {
			add(SeverityError, "", "categories.id", "category id is required")
			continue
		}
		if _, dup := categories[c.ID]; dup {
			add(SeverityError, "", "categories.id", fmt.Sprintf("duplicate category %q", c.ID))
		}
		categories[c.ID] = struct{}{}
	}

	seen := make(map[ProductID]struct{}, len(doc.Products))
	for i, p := range doc.Products {
		if strings.TrimSpace(string(p.ID)) == "" {
			add(SeverityError, "", fmt.Sprintf("products[%d].id", i), "product id is required")
			continue
		}
		if _, dup := seen[p.ID]; dup {
			add(SeverityError, p.ID, "id", "duplicate product id")
		}
		seen[p.ID] = struct{}{}

		if strings.TrimSpace(p.Name) == "" {
			add(SeverityError, p.ID, "name", "name is required")
		}
		if p.Price.IsNegative() {
			add(SeverityError, p.ID, "price", "price must not be negative")
		}
		if p.Stock < 0 {
			add(SeverityError, p.ID, "stock", "stock must not be negative")
		}
		if p.SKU == "" {
			add(SeverityWarning, p.ID, "sku", "sku is empty")
		}
		if _, ok := categories[p.Category]; !ok && len(categories) > 0 {
			add(SeverityWarning, p.ID, "category", fmt.Sprintf("unknown category %q", p.Category))
		}
		if p.CompareAtPrice != nil && p.CompareAtPrice.LessThanOrEqual(p.Price) {
			add(SeverityWarning, p.ID, "compareAtPrice", "compare price is not above price")
		}
	}

	if o := doc.ShippingConfig; o != nil {
		amounts := []struct {
			field string
			value *decimal.Decimal
		}{
			{"shippingConfig.cost", o.Cost},
			{"shippingConfig.freeThreshold", o.FreeThreshold},
			{"shippingConfig.expressCost", o.ExpressCost},
		}
		for _, a := range amounts {
			if a.value != nil && a.value.IsNegative() {
				add(SeverityError, "", a.field, "amount must not be negative")
			}
		}
	}

	return issues
}
