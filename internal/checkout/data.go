package checkout

import (
	"strings"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// Data is the buyer contact and shipping form.
type Data struct {
	Email          string               `json:"email" validate:"required,email,max=254"`
	FirstName      string               `json:"firstName" validate:"required,max=100"`
	LastName       string               `json:"lastName" validate:"required,max=100"`
	Address        string               `json:"address" validate:"required,max=300"`
	Apartment      string               `json:"apartment,omitempty" validate:"max=300"`
	City           string               `json:"city" validate:"required,max=120"`
	PostalCode     string               `json:"postalCode,omitempty" validate:"max=20"`
	Phone          string               `json:"phone" validate:"required,max=40"`
	ShippingMethod enums.ShippingMethod `json:"shippingMethod" validate:"required,oneof=standard express"`
}

// DefaultData is the empty form with the standard shipping method selected.
func DefaultData() Data {
	return Data{ShippingMethod: enums.ShippingMethodStandard}
}

// Normalized trims every field, lower-cases the shipping method and fills the default method.
func (d Data) Normalized() Data {
	d.Email = strings.TrimSpace(d.Email)
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Address = strings.TrimSpace(d.Address)
	d.Apartment = strings.TrimSpace(d.Apartment)
	d.City = strings.TrimSpace(d.City)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	d.Phone = strings.TrimSpace(d.Phone)
	d.ShippingMethod = enums.ShippingMethod(strings.ToLower(strings.TrimSpace(string(d.ShippingMethod)))).OrDefault()
	return d
}

// FullName joins first and last name.
func (d Data) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}
