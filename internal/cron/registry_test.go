package cron

import (
	"context"
	"testing"
	"time"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	evict := &stubJob{name: "session-eviction"}
	sweep := &stubJob{name: "state-sweep"}
	registry := NewRegistry(evict, nil)
	registry.Register(nil)
	registry.Register(sweep)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != evict || jobs[1] != sweep {
		t.Fatalf("jobs returned out of order")
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegisterEveryClampsNegativeCadence(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterEvery(&stubJob{name: "receipt-retention"}, 24*time.Hour)
	registry.RegisterEvery(&stubJob{name: "odd"}, -time.Second)
	registry.RegisterEvery(nil, time.Hour)

	entries := registry.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Every != 24*time.Hour || entries[1].Every != 0 {
		t.Fatalf("unexpected cadences: %v %v", entries[0].Every, entries[1].Every)
	}
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	if !entries[0].due(time.Time{}, now) {
		t.Fatalf("a job that never ran is due")
	}
	if entries[0].due(now.Add(-time.Hour), now) {
		t.Fatalf("daily job ran an hour ago and is not due")
	}
}
