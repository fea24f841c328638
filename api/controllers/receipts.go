package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/angelmondragon/storefront/pkg/types"
)

// ReceiptReader is the read side of the receipt journal.
type ReceiptReader interface {
	ForOrder(ctx context.Context, provider, orderID string) (*models.Receipt, error)
	ForSession(ctx context.Context, sessionID string, params pagination.Params) (pagination.Page[models.Receipt], error)
}

type receiptLineDTO struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type receiptDTO struct {
	Provider        string                `json:"provider"`
	OrderID         string                `json:"orderId"`
	CaptureID       string                `json:"captureId,omitempty"`
	Status          string                `json:"status"`
	Email           string                `json:"email,omitempty"`
	PayerName       string                `json:"payerName,omitempty"`
	Currency        enums.Currency        `json:"currency"`
	Subtotal        string                `json:"subtotal"`
	Shipping        string                `json:"shipping"`
	Total           string                `json:"total"`
	ShippingMethod  enums.ShippingMethod  `json:"shippingMethod"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	CapturedAt      time.Time             `json:"capturedAt"`
	Lines           []receiptLineDTO      `json:"lines"`
}

type receiptListResponse struct {
	Receipts   []receiptDTO `json:"receipts"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// ReceiptsList pages through the receipts of the calling session, newest first.
func ReceiptsList(journal ReceiptReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if journal == nil {
			serveError(w, r, logg, pkgerrors.New(pkgerrors.CodeDependency, "receipt journal unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		page, err := journal.ForSession(r.Context(), sessionID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		out := receiptListResponse{Receipts: make([]receiptDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
		for i := range page.Items {
			out.Receipts = append(out.Receipts, toReceiptDTO(&page.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ReceiptForOrder returns one receipt of the calling session. Receipts of other
// sessions are reported as missing.
func ReceiptForOrder(journal ReceiptReader, provider string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if journal == nil {
			serveError(w, r, logg, pkgerrors.New(pkgerrors.CodeDependency, "receipt journal unavailable"))
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		receipt, err := journal.ForOrder(r.Context(), provider, orderID)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		if receipt.SessionID != middleware.SessionIDFromContext(r.Context()) {
			serveError(w, r, logg, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found"))
			return
		}
		responses.WriteSuccess(w, toReceiptDTO(receipt))
	}
}

func toReceiptDTO(m *models.Receipt) receiptDTO {
	lines := make([]receiptLineDTO, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, receiptLineDTO{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			UnitPrice: formatMinor(m.Currency, l.UnitPriceCents),
			Quantity:  l.Quantity,
		})
	}
	return receiptDTO{
		Provider:        m.Provider,
		OrderID:         m.OrderID,
		CaptureID:       m.CaptureID,
		Status:          m.Status,
		Email:           m.Email,
		PayerName:       m.PayerName,
		Currency:        m.Currency,
		Subtotal:        formatMinor(m.Currency, m.SubtotalCents),
		Shipping:        formatMinor(m.Currency, m.ShippingCents),
		Total:           formatMinor(m.Currency, m.TotalCents),
		ShippingMethod:  m.ShippingMethod,
		ShippingAddress: m.ShippingAddress,
		CapturedAt:      m.CapturedAt.UTC(),
		Lines:           lines,
	}
}
