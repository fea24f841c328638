package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/internal/payment"
	"github.com/angelmondragon/storefront/internal/persistence"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Deps are shared by every session.
type Deps struct {
	Catalog        *catalog.Catalog
	Backend        persistence.Backend
	Loader         payment.Loader
	Receipts       payment.ReceiptRecorder
	Metrics        *metrics.StorefrontMetrics
	Logger         *logger.Logger
	Checkout       checkout.Options
	Order          payment.OrderOptions
	PaymentTimeout time.Duration
	Now            func() time.Time
}

// Registry owns the live sessions of this process.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) (*Registry, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog required")
	}
	if deps.Backend == nil {
		return nil, errors.New("persistence backend required")
	}
	if deps.Loader == nil {
		return nil, errors.New("payment provider loader required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Registry{deps: deps, sessions: map[string]*Session{}}, nil
}

// Catalog is the shared catalog.
func (r *Registry) Catalog() *catalog.Catalog {
	return r.deps.Catalog
}

// Do runs fn with exclusive access to the session, creating or restoring it on first
// use. Notices raised while fn runs are returned alongside its error.
func (r *Registry) Do(ctx context.Context, sessionID string, fn func(ctx context.Context, s *Session) error) ([]types.Notice, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	s := r.acquire(sessionID)
	defer r.release(s)

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = r.deps.Logger.WithSessionID(ctx, sessionID)
	if !s.ready {
		if err := s.init(ctx, &r.deps); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "session init failed")
		}
	}

	collector := &notify.Collector{}
	unsubscribe := s.bus.Subscribe(collector)
	defer unsubscribe()

	err := fn(ctx, s)
	return collector.Notices(), err
}

func (r *Registry) acquire(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{id: id}
		r.sessions[id] = s
		r.reportSize()
	}
	s.refs++
	s.lastSeen = r.deps.Now()
	return s
}

func (r *Registry) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.refs--
	s.lastSeen = r.deps.Now()
}

// EvictIdle drops sessions untouched since cutoff. Their state survives in the
// persistence backend and is restored on the next request.
func (r *Registry) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, s := range r.sessions {
		if s.refs > 0 || !s.lastSeen.Before(cutoff) {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	if evicted > 0 {
		r.reportSize()
	}
	return evicted
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) reportSize() {
	r.deps.Metrics.SetActiveSessions(len(r.sessions))
}
