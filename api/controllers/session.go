package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Sessions runs work against one shopper session; *storefront.Registry implements it.
type Sessions interface {
	Do(ctx context.Context, sessionID string, fn func(ctx context.Context, s *storefront.Session) error) ([]types.Notice, error)
}

type sessionOp func(ctx context.Context, s *storefront.Session) (any, error)

// serveSession runs op under the request's session and writes its result with the
// notices raised along the way.
func serveSession(w http.ResponseWriter, r *http.Request, sessions Sessions, logg *logger.Logger, status int, op sessionOp) {
	if sessions == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session registry unavailable"))
		return
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	var data any
	notices, err := sessions.Do(r.Context(), sessionID, func(ctx context.Context, s *storefront.Session) error {
		var opErr error
		data, opErr = op(ctx, s)
		return opErr
	})
	if err != nil {
		responses.WriteErrorWithNotices(r.Context(), logg, w, err, notices)
		return
	}
	responses.WriteSuccessWithNotices(w, status, data, notices)
}

// SessionView returns the shopper's current cart, totals and checkout state.
func SessionView(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveSession(w, r, sessions, logg, http.StatusOK, func(_ context.Context, s *storefront.Session) (any, error) {
			return s.View(), nil
		})
	}
}
