package receipts

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

// Repository manages persistence for receipts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, receipt *models.Receipt) error
	FindByOrder(ctx context.Context, provider, orderID string) (*models.Receipt, error)
	ListBySession(ctx context.Context, sessionID string, cursor *pagination.Cursor, limit int) ([]models.Receipt, error)
	DeleteCapturedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a receipts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *repository) FindByOrder(ctx context.Context, provider, orderID string) (*models.Receipt, error) {
	var receipt models.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("provider = ? AND order_id = ?", provider, orderID).
		First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListBySession returns up to limit receipts of a session, newest first, starting
// after cursor when one is given.
func (r *repository) ListBySession(ctx context.Context, sessionID string, cursor *pagination.Cursor, limit int) ([]models.Receipt, error) {
	var receipts []models.Receipt
	q := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("session_id = ?", sessionID)
	if cursor != nil {
		q = q.Where("captured_at < ? OR (captured_at = ? AND id < ?)", cursor.At, cursor.At, cursor.ID)
	}
	q = q.Order("captured_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// DeleteCapturedBefore removes receipts (and their lines) captured before cutoff.
func (r *repository) DeleteCapturedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&models.Receipt{}).Select("id").Where("captured_at < ?", cutoff)
		if err := tx.Where("receipt_id IN (?)", stale).Delete(&models.ReceiptLine{}).Error; err != nil {
			return err
		}
		res := tx.Where("captured_at < ?", cutoff).Delete(&models.Receipt{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}
