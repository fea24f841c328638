package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/pkg/logger"
)

type fakeLock struct {
	acquired bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunOnceRunsAllJobsAndAggregatesFailures(t *testing.T) {
	success := &testJob{name: "success"}
	first := &testJob{name: "evict", err: errors.New("boom")}
	second := &testJob{name: "prune", err: errors.New("db down")}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(first, success, second),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected aggregated job errors")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 job errors, got %d: %v", got, err)
	}
	if !strings.Contains(err.Error(), "evict: boom") || !strings.Contains(err.Error(), "prune: db down") {
		t.Fatalf("errors should name their jobs: %v", err)
	}
	if success.runs != 1 || first.runs != 1 || second.runs != 1 {
		t.Fatalf("every job should run once: %d %d %d", success.runs, first.runs, second.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
}

func TestServiceSkipsCycleWhenLocked(t *testing.T) {
	job := &testJob{name: "job"}
	lock := &fakeLock{acquired: true}
	service, err := NewService(ServiceParams{Logger: logger.Nop(), Registry: NewRegistry(job), Lock: lock})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("locked cycle should be skipped quietly: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("job must not run while another instance holds the lock")
	}
}

func TestServiceDefaultsToLocalLock(t *testing.T) {
	service, err := NewService(ServiceParams{Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if _, ok := service.lock.(*LocalLock); !ok {
		t.Fatalf("expected local lock, got %T", service.lock)
	}
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected logger to be required")
	}
}

func TestLocalLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalLock()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("first acquire should succeed")
	}
	if ok, _ := lock.Acquire(ctx); ok {
		t.Fatal("second acquire should fail while held")
	}
	_ = lock.Release(ctx)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire after release should succeed")
	}
}

func TestServiceHonoursJobCadence(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	evict := &testJob{name: "session-eviction"}
	prune := &testJob{name: "receipt-retention"}
	registry := NewRegistry(evict)
	registry.RegisterEvery(prune, time.Hour)

	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: registry,
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := service.RunOnce(ctx); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		now = now.Add(20 * time.Minute)
	}
	if evict.runs != 3 {
		t.Fatalf("every-cycle job should run 3 times, got %d", evict.runs)
	}
	if prune.runs != 1 {
		t.Fatalf("hourly job should run once in 40 minutes, got %d", prune.runs)
	}

	now = now.Add(time.Hour)
	_ = service.RunOnce(ctx)
	if prune.runs != 2 {
		t.Fatalf("hourly job should run again after an hour, got %d", prune.runs)
	}
}

type fakeLockStore struct {
	values map[string]string
}

func (f *fakeLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) DelIfEquals(_ context.Context, key, value string) (bool, error) {
	if f.values[key] != value {
		return false, nil
	}
	delete(f.values, key)
	return true, nil
}

func TestRedisLockReleasesOnlyOwnToken(t *testing.T) {
	ctx := context.Background()
	store := &fakeLockStore{values: map[string]string{}}
	first, err := NewRedisLock(store, "storefront:lock:cron", 0)
	if err != nil {
		t.Fatalf("construct lock: %v", err)
	}
	second, _ := NewRedisLock(store, "storefront:lock:cron", time.Second)

	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatal("first instance should acquire")
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second instance must wait")
	}

	// the first lease expired and another instance took the key
	store.values["storefront:lock:cron"] = "someone-else"
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["storefront:lock:cron"] != "someone-else" {
		t.Fatal("release must not delete a lock held by another owner")
	}

	if _, err := NewRedisLock(nil, "k", time.Second); err == nil {
		t.Fatal("expected store to be required")
	}
}
