package cron

import (
	"context"
	"time"
)

// Job is one housekeeping task of the storefront process.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Entry pairs a job with its cadence. A zero Every runs the job on every cycle.
type Entry struct {
	Job   Job
	Every time.Duration
}

// due reports whether the entry should run at now given its previous start.
func (e Entry) due(last, now time.Time) bool {
	if e.Every <= 0 || last.IsZero() {
		return true
	}
	return !now.Before(last.Add(e.Every))
}

type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry whose jobs run on every cycle. Nil jobs are skipped.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

func (r *Registry) Register(job Job) {
	r.RegisterEvery(job, 0)
}

// RegisterEvery adds a job that runs at most once per every.
func (r *Registry) RegisterEvery(job Job, every time.Duration) {
	if job == nil {
		return
	}
	if every < 0 {
		every = 0
	}
	r.entries = append(r.entries, Entry{Job: job, Every: every})
}

// Entries returns a copy of the registered entries in insertion order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Jobs lists the registered jobs in insertion order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.entries))
	for _, e := range r.entries {
		jobs = append(jobs, e.Job)
	}
	return jobs
}
