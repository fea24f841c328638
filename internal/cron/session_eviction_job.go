package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
)

const defaultIdleEvict = 30 * time.Minute

type SessionEvictionJobParams struct {
	Logger   *logger.Logger
	Sessions idleEvicter
	IdleTTL  time.Duration
}

type idleEvicter interface {
	EvictIdle(cutoff time.Time) int
	Len() int
}

// NewSessionEvictionJob drops in-memory shopper sessions idle for longer than IdleTTL.
func NewSessionEvictionJob(params SessionEvictionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	ttl := params.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleEvict
	}
	return &sessionEvictionJob{logg: params.Logger, sessions: params.Sessions, ttl: ttl, now: time.Now}, nil
}

type sessionEvictionJob struct {
	logg     *logger.Logger
	sessions idleEvicter
	ttl      time.Duration
	now      func() time.Time
}

func (j *sessionEvictionJob) Name() string { return "session-eviction" }

func (j *sessionEvictionJob) Run(ctx context.Context) error {
	evicted := j.sessions.EvictIdle(j.now().Add(-j.ttl))
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"evicted":   evicted,
		"remaining": j.sessions.Len(),
	})
	j.logg.Info(logCtx, "idle sessions evicted")
	return nil
}
