package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Receipt records a captured order. Amounts are stored in cents.
type Receipt struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SessionID       string                `gorm:"column:session_id;not null;index:idx_receipts_session_id"`
	Provider        string                `gorm:"column:provider;not null;uniqueIndex:idx_receipts_provider_order"`
	OrderID         string                `gorm:"column:order_id;not null;uniqueIndex:idx_receipts_provider_order"`
	CaptureID       string                `gorm:"column:capture_id"`
	Status          string                `gorm:"column:status;not null"`
	Email           string                `gorm:"column:email"`
	PayerName       string                `gorm:"column:payer_name"`
	Currency        enums.Currency        `gorm:"column:currency;not null"`
	SubtotalCents   int64                 `gorm:"column:subtotal_cents;not null"`
	ShippingCents   int64                 `gorm:"column:shipping_cents;not null"`
	TotalCents      int64                 `gorm:"column:total_cents;not null"`
	ShippingMethod  enums.ShippingMethod  `gorm:"column:shipping_method;not null"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:text"`
	CapturedAt      time.Time             `gorm:"column:captured_at;not null;index:idx_receipts_captured_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	Lines           []ReceiptLine         `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
}

func (Receipt) TableName() string { return "receipts" }

// BeforeCreate assigns the id in Go so sqlite and postgres behave the same.
func (r *Receipt) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReceiptLine is one purchased product at the price charged.
type ReceiptLine struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ReceiptID      uuid.UUID `gorm:"column:receipt_id;type:uuid;not null;index:idx_receipt_lines_receipt_id"`
	Position       int       `gorm:"column:position;not null"`
	ProductID      string    `gorm:"column:product_id;not null"`
	SKU            string    `gorm:"column:sku"`
	Name           string    `gorm:"column:name;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
}

func (ReceiptLine) TableName() string { return "receipt_lines" }

func (l *ReceiptLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
