package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:     "secret",
		Issuer:     "storefront",
		CookieName: "storefront_session",
		TTL:        time.Hour,
	}
}

func captureSession(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var seen string
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	})).ServeHTTP(rec, req)
	return seen, rec
}

func TestSessionStartsNewSessionAndSetsCookie(t *testing.T) {
	cfg := testSessionConfig()
	mw := Session(cfg, logger.Nop(), nil)

	sid, rec := captureSession(t, mw, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.NotEmpty(t, sid)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cfg.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	claims, err := auth.ParseSessionToken(cfg, cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, sid, claims.SessionID)
}

func TestSessionKeepsExistingSession(t *testing.T) {
	cfg := testSessionConfig()
	now := time.Now()
	token, err := auth.MintSessionToken(cfg, now, "shopper-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})
	sid, rec := captureSession(t, Session(cfg, nil, func() time.Time { return now.Add(time.Minute) }), req)

	assert.Equal(t, "shopper-1", sid)
	assert.Empty(t, rec.Result().Cookies(), "fresh tokens are not reissued")
}

func TestSessionReissuesAgingToken(t *testing.T) {
	cfg := testSessionConfig()
	now := time.Now()
	token, err := auth.MintSessionToken(cfg, now, "shopper-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(SessionHeader, token)
	sid, rec := captureSession(t, Session(cfg, nil, func() time.Time { return now.Add(40 * time.Minute) }), req)

	assert.Equal(t, "shopper-1", sid)
	assert.NotEmpty(t, rec.Header().Get(SessionHeader))
}

func TestSessionReplacesTamperedToken(t *testing.T) {
	cfg := testSessionConfig()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: "not-a-jwt"})

	sid, rec := captureSession(t, Session(cfg, logger.Nop(), nil), req)
	assert.NotEmpty(t, sid)
	assert.Len(t, rec.Result().Cookies(), 1)
}
