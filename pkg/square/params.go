package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"
)

// Address is the shipping recipient forwarded with a payment.
type Address struct {
	FirstName   string
	LastName    string
	Line1       string
	Line2       string
	Locality    string
	PostalCode  string
	CountryCode string
}

func (a *Address) toSquare() *sq.Address {
	if a == nil || strings.TrimSpace(a.Line1) == "" {
		return nil
	}
	out := &sq.Address{
		AddressLine1: ptrString(a.Line1),
		AddressLine2: ptrString(a.Line2),
		Locality:     ptrString(a.Locality),
		PostalCode:   ptrString(a.PostalCode),
		FirstName:    ptrString(a.FirstName),
		LastName:     ptrString(a.LastName),
	}
	if code := strings.ToUpper(strings.TrimSpace(a.CountryCode)); code != "" {
		country := sq.Country(code)
		out.Country = &country
	}
	return out
}

// PaymentCreateParams encapsulates the inputs for a Square payment.
type PaymentCreateParams struct {
	AmountCents       int64
	Currency          string
	LocationID        string
	SourceID          string
	IdempotencyKey    string
	Note              string
	ReferenceID       string
	BuyerEmailAddress string
	ShippingAddress   *Address
	// Autocomplete false leaves the payment APPROVED until CompletePayment.
	Autocomplete bool
}

func (p PaymentCreateParams) toSquareRequest(idempotencyKey string) *sq.CreatePaymentRequest {
	req := &sq.CreatePaymentRequest{
		IdempotencyKey: idempotencyKey,
		LocationID:     ptrString(p.LocationID),
		SourceID:       p.SourceID,
		Autocomplete:   boolPtr(p.Autocomplete),
	}
	if p.AmountCents > 0 {
		req.AmountMoney = moneyPtr(p.AmountCents, p.Currency)
	}
	if trimmed := strings.TrimSpace(p.Note); trimmed != "" {
		req.Note = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		req.ReferenceID = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.BuyerEmailAddress); trimmed != "" {
		req.BuyerEmailAddress = ptrString(trimmed)
	}
	req.ShippingAddress = p.ShippingAddress.toSquare()
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "USD"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
