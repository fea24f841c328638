// Package receipts keeps a journal of captured orders.
package receipts

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/payment"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// Journal records payment receipts and answers lookups for them.
type Journal struct {
	client *db.Client
	repo   Repository
}

func NewJournal(client *db.Client, repo Repository) *Journal {
	if repo == nil && client != nil {
		repo = NewRepository(client.DB())
	}
	return &Journal{client: client, repo: repo}
}

// Record stores a receipt. Recording the same provider order twice is not an error.
func (j *Journal) Record(ctx context.Context, r payment.Receipt) error {
	if r.OrderID == "" || r.Provider == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "receipt requires provider and order id")
	}
	model := toModel(r)
	err := j.client.WithTx(ctx, func(tx *gorm.DB) error {
		return j.repo.WithTx(tx).Create(ctx, model)
	})
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err, "") {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record receipt")
}

// ForOrder loads a receipt by provider order id.
func (j *Journal) ForOrder(ctx context.Context, provider, orderID string) (*models.Receipt, error) {
	receipt, err := j.repo.FindByOrder(ctx, provider, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
	}
	return receipt, nil
}

// ForSession pages through the receipts of a shopper session, newest first.
func (j *Journal) ForSession(ctx context.Context, sessionID string, params pagination.Params) (pagination.Page[models.Receipt], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Receipt]{}, err
	}
	rows, err := j.repo.ListBySession(ctx, sessionID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[models.Receipt]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list receipts")
	}
	return pagination.Split(rows, params.Limit, func(r models.Receipt) pagination.Cursor {
		return pagination.Cursor{At: r.CapturedAt, ID: r.ID}
	}), nil
}

// Prune deletes receipts captured before cutoff.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	return j.repo.DeleteCapturedBefore(ctx, cutoff.UTC())
}

func toModel(r payment.Receipt) *models.Receipt {
	lines := make([]models.ReceiptLine, 0, len(r.Lines))
	for i, l := range r.Lines {
		lines = append(lines, models.ReceiptLine{
			Position:       i,
			ProductID:      l.ProductID,
			SKU:            l.SKU,
			Name:           l.Name,
			UnitPriceCents: r.Currency.ToMinor(l.UnitPrice),
			Quantity:       l.Quantity,
		})
	}
	return &models.Receipt{
		SessionID:       r.SessionID,
		Provider:        r.Provider,
		OrderID:         r.OrderID,
		CaptureID:       r.CaptureID,
		Status:          r.Status,
		Email:           r.Email,
		PayerName:       r.PayerName,
		Currency:        r.Currency,
		SubtotalCents:   r.Currency.ToMinor(r.Subtotal),
		ShippingCents:   r.Currency.ToMinor(r.Shipping),
		TotalCents:      r.Currency.ToMinor(r.Total),
		ShippingMethod:  r.ShippingMethod,
		ShippingAddress: r.ShippingAddress,
		CapturedAt:      r.CapturedAt.UTC(),
		Lines:           lines,
	}
}

