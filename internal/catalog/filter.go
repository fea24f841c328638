package catalog

import (
	"sort"
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// CategoryAll matches every category.
const CategoryAll = "all"

// Filter is pure view state; applying it never touches carts or totals.
type Filter struct {
	Category string
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     enums.SortKey
}

func (f Filter) matches(p Product) bool {
	if f.Category != "" && f.Category != CategoryAll && p.Category != f.Category {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

// Filter returns the matching products ordered by f.Sort. Ties keep document order.
func (c *Catalog) Filter(f Filter) []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if f.matches(p) {
			out = append(out, p)
		}
	}

	switch f.Sort {
	case enums.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case enums.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case enums.SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case enums.SortRating:
		sort.SliceStable(out, func(i, j int) bool { return ratingOf(out[i]) > ratingOf(out[j]) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Featured && !out[j].Featured })
	}
	return out
}

func ratingOf(p Product) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}
