package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
)

const defaultReceiptRetention = 90 * 24 * time.Hour

type ReceiptRetentionJobParams struct {
	Logger    *logger.Logger
	Journal   receiptPruner
	Retention time.Duration
}

type receiptPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewReceiptRetentionJob(params ReceiptRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Journal == nil {
		return nil, fmt.Errorf("receipt journal required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultReceiptRetention
	}
	return &receiptRetentionJob{
		logg:      params.Logger,
		journal:   params.Journal,
		retention: retention,
		now:       time.Now,
	}, nil
}

type receiptRetentionJob struct {
	logg      *logger.Logger
	journal   receiptPruner
	retention time.Duration
	now       func() time.Time
}

func (j *receiptRetentionJob) Name() string { return "receipt-retention" }

func (j *receiptRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.journal.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("receipt retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention_h":  j.retention.Hours(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "receipt retention cleanup complete")
	return nil
}
