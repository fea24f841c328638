package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
)

type StateSweepJobParams struct {
	Logger  *logger.Logger
	Backend stateSweeper
	TTL     time.Duration
}

type stateSweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// NewStateSweepJob expires persisted state from the in-memory backend, matching the
// TTL Redis applies on its own.
func NewStateSweepJob(params StateSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("state backend required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("state ttl must be positive")
	}
	return &stateSweepJob{logg: params.Logger, backend: params.Backend, ttl: params.TTL, now: time.Now}, nil
}

type stateSweepJob struct {
	logg    *logger.Logger
	backend stateSweeper
	ttl     time.Duration
	now     func() time.Time
}

func (j *stateSweepJob) Name() string { return "state-sweep" }

func (j *stateSweepJob) Run(ctx context.Context) error {
	removed, err := j.backend.Sweep(ctx, j.now().Add(-j.ttl))
	if err != nil {
		return fmt.Errorf("state sweep: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "removed", removed), "expired session state swept")
	return nil
}
