package persistence

import (
	"context"
	"encoding/json"

	"github.com/angelmondragon/storefront/pkg/logger"
)

// Namespace is a versioned storage key; bump the suffix when the stored shape changes.
type Namespace string

const (
	NamespaceCart     Namespace = "cart_v3"
	NamespaceCheckout Namespace = "checkout_v3"
	NamespacePayment  Namespace = "payment_v1"
)

// Backend is durable key/value storage scoped by session and namespace.
type Backend interface {
	Read(ctx context.Context, sessionID string, ns Namespace) ([]byte, bool, error)
	Write(ctx context.Context, sessionID string, ns Namespace, data []byte) error
	Delete(ctx context.Context, sessionID string, ns Namespace) error
}

// FailureRecorder counts degraded reads and writes.
type FailureRecorder interface {
	IncPersistenceFailure(operation, namespace string)
}

// Store is the persistence adapter of one shopper session. It never returns errors:
// failed writes are logged, failed or malformed reads are reported as absent.
type Store struct {
	backend   Backend
	sessionID string
	logg      *logger.Logger
	failures  FailureRecorder
}

func NewStore(backend Backend, sessionID string, logg *logger.Logger, failures FailureRecorder) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{backend: backend, sessionID: sessionID, logg: logg, failures: failures}
}

// Save writes the full JSON snapshot of v.
func (s *Store) Save(ctx context.Context, ns Namespace, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.degraded(ctx, "save", ns, err)
		return
	}
	if err := s.backend.Write(ctx, s.sessionID, ns, data); err != nil {
		s.degraded(ctx, "save", ns, err)
	}
}

// Clear removes the namespace.
func (s *Store) Clear(ctx context.Context, ns Namespace) {
	if err := s.backend.Delete(ctx, s.sessionID, ns); err != nil {
		s.degraded(ctx, "clear", ns, err)
	}
}

func (s *Store) read(ctx context.Context, ns Namespace) ([]byte, bool) {
	data, ok, err := s.backend.Read(ctx, s.sessionID, ns)
	if err != nil {
		s.degraded(ctx, "load", ns, err)
		return nil, false
	}
	return data, ok
}

func (s *Store) degraded(ctx context.Context, op string, ns Namespace, err error) {
	if s.failures != nil {
		s.failures.IncPersistenceFailure(op, string(ns))
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"operation": op,
		"namespace": string(ns),
		"error":     err.Error(),
	})
	s.logg.Warn(ctx, "persistence.degraded")
}

// Load decodes the namespace into a fresh T. Missing, unreadable or malformed data
// yields the zero T and false.
func Load[T any](ctx context.Context, s *Store, ns Namespace) (T, bool) {
	var zero T
	data, ok := s.read(ctx, ns)
	if !ok {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		s.degraded(ctx, "decode", ns, err)
		return zero, false
	}
	return out, true
}
