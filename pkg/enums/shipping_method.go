package enums

import (
	"fmt"
	"strings"
)

// ShippingMethod selects which shipping leg applies below the free-shipping threshold.
type ShippingMethod string

const (
	ShippingMethodStandard ShippingMethod = "standard"
	ShippingMethodExpress  ShippingMethod = "express"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodStandard,
	ShippingMethodExpress,
}

// String implements fmt.Stringer.
func (m ShippingMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known ShippingMethod.
func (m ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// OrDefault returns standard for an empty method.
func (m ShippingMethod) OrDefault() ShippingMethod {
	if m == "" {
		return ShippingMethodStandard
	}
	return m
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validShippingMethods {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}
