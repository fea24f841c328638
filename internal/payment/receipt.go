package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Receipt is the local record of a captured order.
type Receipt struct {
	SessionID       string
	Provider        string
	OrderID         string
	CaptureID       string
	Status          string
	Email           string
	PayerName       string
	Currency        enums.Currency
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	ShippingMethod  enums.ShippingMethod
	ShippingAddress types.ShippingAddress
	Lines           []ReceiptLine
	CapturedAt      time.Time
}

type ReceiptLine struct {
	ProductID string
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// ReceiptRecorder stores receipts. Failures never undo a capture.
type ReceiptRecorder interface {
	Record(ctx context.Context, r Receipt) error
}

func newReceipt(sessionID, provider string, req OrderRequest, capture *Capture, now time.Time) Receipt {
	lines := make([]ReceiptLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, ReceiptLine{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitAmount.Decimal(),
			Quantity:  item.Quantity,
		})
	}
	capturedAt := capture.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = now
	}
	email := capture.Payer.Email
	if email == "" {
		email = req.Payer.Email
	}
	return Receipt{
		SessionID:       sessionID,
		Provider:        provider,
		OrderID:         capture.OrderID,
		CaptureID:       capture.CaptureID,
		Status:          capture.Status,
		Email:           email,
		PayerName:       req.ShippingAddress.FullName,
		Currency:        req.Amount.CurrencyCode,
		Subtotal:        req.Amount.Breakdown.ItemTotal.Decimal(),
		Shipping:        req.Amount.Breakdown.Shipping.Decimal(),
		Total:           req.Amount.Decimal(),
		ShippingMethod:  req.ShippingMethod,
		ShippingAddress: req.ShippingAddress,
		Lines:           lines,
		CapturedAt:      capturedAt,
	}
}
