package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const defaultInterval = time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	// Interval is the tick of the scheduler; entries with a longer cadence skip ticks.
	Interval time.Duration
	Now      func() time.Time
}

// Service runs the housekeeping jobs of the storefront on their cadences, one cycle at
// a time across every instance sharing the lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
		now:      params.Now,
		lastRun:  map[string]time.Time{},
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.lock == nil {
		s.lock = NewLocalLock()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Run ticks until ctx is canceled. The first cycle runs immediately.
func (s *Service) Run(ctx context.Context) error {
	s.cycle(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "housekeeping stopped")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Service) cycle(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "housekeeping cycle failed", err)
	}
}

// RunOnce runs every due job under the lock and joins their failures.
func (s *Service) RunOnce(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "housekeeping lock held elsewhere; skipping cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "housekeeping lock release failed", relErr)
		}
	}()

	var errs error
	for _, entry := range s.dueEntries() {
		if err := s.runJob(ctx, entry.Job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", entry.Job.Name(), err))
		}
	}
	return errs
}

func (s *Service) dueEntries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var due []Entry
	for _, e := range s.registry.Entries() {
		if e.due(s.lastRun[e.Job.Name()], now) {
			s.lastRun[e.Job.Name()] = now
			due = append(due, e)
		}
	}
	return due
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	ctx = s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)
	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())

	if s.metrics != nil {
		s.metrics.ObserveDuration(job.Name(), elapsed)
	}
	if err != nil {
		s.logg.Error(ctx, "job failed", err)
		if s.metrics != nil {
			s.metrics.IncFailure(job.Name())
		}
		return err
	}
	s.logg.Info(ctx, "job completed")
	if s.metrics != nil {
		s.metrics.IncSuccess(job.Name())
	}
	return nil
}
