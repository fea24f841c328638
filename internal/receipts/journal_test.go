package receipts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/payment"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/angelmondragon/storefront/pkg/types"
)

func newJournal(t *testing.T) *Journal {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+filepath.Join(t.TempDir(), "receipts.db")), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Receipt{}, &models.ReceiptLine{}))
	return NewJournal(db.FromGorm(conn, config.DBDriverSQLite), nil)
}

func sampleReceipt(orderID string, capturedAt time.Time) payment.Receipt {
	return payment.Receipt{
		SessionID:      "sess-1",
		Provider:       "sandbox",
		OrderID:        orderID,
		CaptureID:      "CAP-" + orderID,
		Status:         payment.CaptureStatusCompleted,
		Email:          "ana@example.com",
		PayerName:      "Ana Pérez",
		Currency:       enums.CurrencyUSD,
		Subtotal:       decimal.RequireFromString("45.00"),
		Shipping:       decimal.RequireFromString("5.00"),
		Total:          decimal.RequireFromString("50.00"),
		ShippingMethod: enums.ShippingMethodStandard,
		ShippingAddress: types.ShippingAddress{
			FullName:    "Ana Pérez",
			Line1:       "Av. Amazonas 123",
			City:        "Quito",
			PostalCode:  "000000",
			CountryCode: "EC",
		},
		Lines: []payment.ReceiptLine{
			{ProductID: "A", SKU: "SKU-A", Name: "Bolso", UnitPrice: decimal.RequireFromString("15.00"), Quantity: 2},
			{ProductID: "B", SKU: "SKU-B", Name: "Aretes", UnitPrice: decimal.RequireFromString("7.50"), Quantity: 2},
		},
		CapturedAt: capturedAt,
	}
}

func TestRecordAndLoad(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	require.NoError(t, j.Record(ctx, sampleReceipt("ORD-1", time.Now())))

	got, err := j.ForOrder(ctx, "sandbox", "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.TotalCents)
	assert.Equal(t, int64(500), got.ShippingCents)
	assert.Equal(t, "Quito", got.ShippingAddress.City)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "A", got.Lines[0].ProductID)
	assert.Equal(t, int64(750), got.Lines[1].UnitPriceCents)
}

func TestRecordIsIdempotentPerOrder(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	require.NoError(t, j.Record(ctx, sampleReceipt("ORD-1", time.Now())))
	require.NoError(t, j.Record(ctx, sampleReceipt("ORD-1", time.Now())))

	page, err := j.ForSession(ctx, "sess-1", pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestRecordRequiresOrderID(t *testing.T) {
	err := newJournal(t).Record(context.Background(), payment.Receipt{Provider: "sandbox"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestForOrderNotFound(t *testing.T) {
	_, err := newJournal(t).ForOrder(context.Background(), "sandbox", "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPruneRemovesOldReceipts(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)
	now := time.Now().UTC()

	require.NoError(t, j.Record(ctx, sampleReceipt("ORD-old", now.Add(-100*24*time.Hour))))
	require.NoError(t, j.Record(ctx, sampleReceipt("ORD-new", now)))

	deleted, err := j.Prune(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	page, err := j.ForSession(ctx, "sess-1", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ORD-new", page.Items[0].OrderID)

	var lines int64
	require.NoError(t, j.client.DB().Model(&models.ReceiptLine{}).Count(&lines).Error)
	assert.Equal(t, int64(2), lines)
}

func TestForSessionPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)
	base := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		require.NoError(t, j.Record(ctx, sampleReceipt(id, base.Add(time.Duration(i)*time.Minute))))
	}

	first, err := j.ForSession(ctx, "sess-1", pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "ORD-3", first.Items[0].OrderID)
	assert.Equal(t, "ORD-2", first.Items[1].OrderID)
	require.NotEmpty(t, first.NextCursor)

	second, err := j.ForSession(ctx, "sess-1", pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "ORD-1", second.Items[0].OrderID)
	assert.Empty(t, second.NextCursor)

	_, err = j.ForSession(ctx, "sess-1", pagination.Params{Cursor: "not-a-cursor"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
