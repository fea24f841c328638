package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is the recipient block sent to the payment provider and kept on receipts.
type ShippingAddress struct {
	FullName    string `json:"full_name"`
	Line1       string `json:"address_line_1"`
	Line2       string `json:"address_line_2,omitempty"`
	City        string `json:"admin_area_2"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

// Value stores the address as a JSON document column.
func (a ShippingAddress) Value() (driver.Value, error) {
	if strings.TrimSpace(a.Line1) == "" {
		return nil, fmt.Errorf("shipping address: missing address_line_1")
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("shipping address: %w", err)
	}
	return string(b), nil
}

// Scan decodes the JSON document column.
func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("shipping address: unsupported scan type %T", value)
	}
	if strings.TrimSpace(raw) == "" {
		*a = ShippingAddress{}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), a); err != nil {
		return fmt.Errorf("shipping address: %w", err)
	}
	return nil
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
