package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// SessionHeader lets non-browser clients present the session token without cookies.
const SessionHeader = "X-Storefront-Session"

// Session binds every request to an anonymous shopper session. A missing, expired or
// tampered token starts a fresh session; a token past half its lifetime is reissued.
func Session(cfg config.SessionConfig, logg *logger.Logger, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			current := now()

			sessionID := ""
			reissue := true
			if raw := sessionToken(r, cfg.CookieName); raw != "" {
				claims, err := auth.ParseSessionToken(cfg, raw)
				switch {
				case err != nil:
					if logg != nil {
						logg.Warn(logg.WithField(ctx, "reason", err.Error()), "session.token_rejected")
					}
				default:
					sessionID = claims.SessionID
					reissue = claims.IssuedAt == nil || current.Sub(claims.IssuedAt.Time) > cfg.TTL/2
				}
			}
			if sessionID == "" {
				sessionID = auth.NewSessionID()
			}

			if reissue {
				token, err := auth.MintSessionToken(cfg, current, sessionID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue session"))
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					Expires:  current.Add(cfg.TTL),
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
				w.Header().Set(SessionHeader, token)
			}

			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if header := strings.TrimSpace(r.Header.Get(SessionHeader)); header != "" {
		return header
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
