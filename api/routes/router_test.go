package routes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/payment"
	"github.com/angelmondragon/storefront/internal/payment/sandbox"
	"github.com/angelmondragon/storefront/internal/persistence"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:        "dev",
			RateLimit:  20,
			RateWindow: time.Minute,
		},
		Catalog: config.CatalogConfig{PublicPath: "/data/products.json"},
		Session: config.SessionConfig{
			Secret:     "router-secret",
			Issuer:     "storefront",
			CookieName: "storefront_session",
			TTL:        time.Hour,
		},
		Payment: config.PaymentConfig{Provider: "sandbox"},
		Offline: config.OfflineConfig{
			CacheName:   "mawewe-v1.0",
			Assets:      []string{"/", "/index.html", "/data/products.json"},
			BypassHosts: []string{"paypal.com"},
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	cat, err := catalog.New(catalog.Document{
		Products: []catalog.Product{
			{ID: "1", Name: "Bolso tejido", Price: decimal.RequireFromString("25.00"), Stock: 3, Category: "bolsos"},
		},
	}, catalog.ShippingConfig{
		Cost:          decimal.RequireFromString("5.00"),
		FreeThreshold: decimal.RequireFromString("50.00"),
		ExpressCost:   decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	sessions, err := storefront.NewRegistry(storefront.Deps{
		Catalog: cat,
		Backend: persistence.NewMemoryBackend(),
		Loader:  payment.Static(sandbox.New()),
		Metrics: metrics.NewStorefrontMetrics(reg),
		Order:   payment.OrderOptions{Currency: enums.CurrencyUSD, CountryCode: "EC"},
	})
	require.NoError(t, err)

	return NewRouter(cfg, logger.Nop(), Dependencies{
		Sessions: sessions,
		Catalog:  cat,
		Gatherer: reg,
	})
}

func serve(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.SessionHeader, token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, testConfig())

	rec := serve(h, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	serve(h, http.MethodPost, "/api/v1/cart/items", "", `{"productId":"1"}`)
	rec = serve(h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_")
}

func TestCatalogRoutesNeedNoSession(t *testing.T) {
	h := newTestRouter(t, testConfig())

	rec := serve(h, http.MethodGet, "/api/v1/catalog/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(middleware.SessionHeader))

	rec = serve(h, http.MethodGet, "/data/products.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `"products"`)
}

func TestSessionCarriesCartAcrossRequests(t *testing.T) {
	h := newTestRouter(t, testConfig())

	rec := serve(h, http.MethodPost, "/api/v1/cart/items", "", `{"productId":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, token)

	rec = serve(h, http.MethodGet, "/api/v1/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"itemCount":1`)

	rec = serve(h, http.MethodGet, "/api/v1/cart", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"itemCount":0`)
}

func TestPaymentRoutesWithoutRedis(t *testing.T) {
	h := newTestRouter(t, testConfig())

	rec := serve(h, http.MethodPost, "/api/v1/cart/items", "", `{"productId":"1"}`)
	token := rec.Header().Get(middleware.SessionHeader)

	rec = serve(h, http.MethodPost, "/api/v1/payment/orders", token, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "STATE_CONFLICT")
}

func TestOfflineManifest(t *testing.T) {
	h := newTestRouter(t, testConfig())

	rec := serve(h, http.MethodGet, "/offline/manifest", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"mawewe-v1.0"`)
	assert.Contains(t, body, `"/data/products.json"`)
}

func TestStaticDirServesShell(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>tienda</html>"), 0o644))

	cfg := testConfig()
	cfg.App.StaticDir = dir
	h := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/productos/bolso", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tienda"))

	rec = serve(h, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteWithoutStaticDir(t *testing.T) {
	h := newTestRouter(t, testConfig())
	rec := serve(h, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
