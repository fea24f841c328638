package payment

import (
	"context"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/square"
)

const ProviderSquare = "square"

// SquarePayments is the slice of the Square client used for delayed capture.
type SquarePayments interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	CompletePayment(ctx context.Context, paymentID string) (*sq.Payment, error)
	CancelPayment(ctx context.Context, paymentID string) (*sq.Payment, error)
}

// SquareProvider maps order creation to an authorized, not yet captured, Square payment,
// capture to CompletePayment and void to CancelPayment.
type SquareProvider struct {
	client SquarePayments
}

func NewSquareProvider(client SquarePayments) *SquareProvider {
	return &SquareProvider{client: client}
}

func (p *SquareProvider) Name() string {
	return ProviderSquare
}

func (p *SquareProvider) CreateOrder(ctx context.Context, req OrderRequest) (*ProviderOrder, error) {
	if strings.TrimSpace(req.SourceToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "square requires a card source token")
	}
	payment, err := p.client.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:       req.Amount.Cents(),
		Currency:          string(req.Amount.CurrencyCode),
		SourceID:          req.SourceToken,
		Note:              req.Description,
		ReferenceID:       req.ReferenceID,
		BuyerEmailAddress: req.Payer.Email,
		ShippingAddress: &square.Address{
			FirstName:   req.Payer.FirstName,
			LastName:    req.Payer.LastName,
			Line1:       req.ShippingAddress.Line1,
			Line2:       req.ShippingAddress.Line2,
			Locality:    req.ShippingAddress.City,
			PostalCode:  req.ShippingAddress.PostalCode,
			CountryCode: req.ShippingAddress.CountryCode,
		},
		Autocomplete: false,
	})
	if err != nil {
		return nil, err
	}
	return &ProviderOrder{ID: deref(payment.GetID()), Status: deref(payment.GetStatus())}, nil
}

func (p *SquareProvider) Capture(ctx context.Context, orderID string) (*Capture, error) {
	payment, err := p.client.CompletePayment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	capture := &Capture{
		OrderID:   orderID,
		CaptureID: deref(payment.GetID()),
		Status:    deref(payment.GetStatus()),
		Payer:     Payer{Email: deref(payment.GetBuyerEmailAddress())},
	}
	if addr := payment.GetShippingAddress(); addr != nil {
		capture.Payer.FirstName = deref(addr.GetFirstName())
		capture.Payer.LastName = deref(addr.GetLastName())
	}
	if money := payment.GetAmountMoney(); money != nil && money.GetAmount() != nil {
		currency := enums.CurrencyUSD
		if money.GetCurrency() != nil {
			currency = enums.Currency(*money.GetCurrency())
		}
		capture.Amount = newMoney(currency, currency.FromMinor(*money.GetAmount()))
	}
	if ts := deref(payment.GetUpdatedAt()); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			capture.CapturedAt = parsed
		}
	}
	return capture, nil
}

// Void cancels the authorization so the held funds return to the buyer.
func (p *SquareProvider) Void(ctx context.Context, orderID string) error {
	_, err := p.client.CancelPayment(ctx, orderID)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
