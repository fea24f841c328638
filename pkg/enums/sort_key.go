package enums

import (
	"fmt"
	"strings"
)

// SortKey orders a filtered product view.
type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortName      SortKey = "name"
	SortRating    SortKey = "rating"
)

var validSortKeys = []SortKey{
	SortFeatured,
	SortPriceAsc,
	SortPriceDesc,
	SortName,
	SortRating,
}

// String implements fmt.Stringer.
func (k SortKey) String() string {
	return string(k)
}

// IsValid reports whether the value is a known SortKey.
func (k SortKey) IsValid() bool {
	for _, candidate := range validSortKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseSortKey converts raw input into a SortKey; empty input means featured.
func ParseSortKey(value string) (SortKey, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return SortFeatured, nil
	}
	for _, candidate := range validSortKeys {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q", value)
}
