package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "products": [
    {"id": 1, "sku": "MW-001", "name": "Bolso Tejido", "description": "Bolso artesanal de paja toquilla", "price": 25.5, "stock": 3, "category": "bolsos", "featured": true, "rating": 4.5, "reviewCount": 12},
    {"id": "2", "sku": "MW-002", "name": "Aretes de Tagua", "description": "Aretes tallados a mano", "price": "12.999", "stock": 0, "category": "joyeria"},
    {"id": 3, "sku": "MW-003", "name": "Collar Andino", "description": "Collar con semillas", "price": 40, "stock": 10, "category": "joyeria", "rating": 4.9}
  ],
  "categories": [
    {"id": "bolsos", "name": "Bolsos"},
    {"id": "joyeria", "name": "Joyería", "icon": "gem"}
  ],
  "shippingConfig": {"freeThreshold": 60}
}`

func defaultShipping() ShippingConfig {
	return ShippingConfig{
		Cost:          decimal.RequireFromString("5.00"),
		FreeThreshold: decimal.RequireFromString("50.00"),
		ExpressCost:   decimal.RequireFromString("10.00"),
	}
}

func mustCatalog(t *testing.T, raw string) *Catalog {
	t.Helper()
	doc, err := Decode([]byte(raw))
	require.NoError(t, err)
	cat, err := New(doc, defaultShipping())
	require.NoError(t, err)
	return cat
}

func TestProductIDAcceptsNumbersAndStrings(t *testing.T) {
	var ids []ProductID
	require.NoError(t, json.Unmarshal([]byte(`[7, "7", "sku-9", 1.0]`), &ids))
	assert.Equal(t, []ProductID{"7", "7", "sku-9", "1.0"}, ids)

	var bad ProductID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &bad))
}

func TestNewRoundsPricesAndAppliesShippingOverride(t *testing.T) {
	cat := mustCatalog(t, sampleDocument)

	p, ok := cat.Product("2")
	require.True(t, ok)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("13.00")), "price %s", p.Price)

	shipping := cat.Shipping()
	assert.True(t, shipping.FreeThreshold.Equal(decimal.NewFromInt(60)))
	assert.True(t, shipping.Cost.Equal(decimal.NewFromInt(5)))
	assert.True(t, shipping.ExpressCost.Equal(decimal.NewFromInt(10)))
	assert.True(t, shipping.CostFor(enums.ShippingMethodExpress).Equal(decimal.NewFromInt(10)))

	_, ok = cat.Product("missing")
	assert.False(t, ok)
	assert.Len(t, cat.Categories(), 2)
}

func TestNewRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"duplicate id":   `{"products":[{"id":1,"name":"a","price":1,"stock":1},{"id":"1","name":"b","price":1,"stock":1}]}`,
		"negative price": `{"products":[{"id":1,"name":"a","price":-1,"stock":1}]}`,
		"negative stock": `{"products":[{"id":1,"name":"a","price":1,"stock":-2}]}`,
		"missing id":     `{"products":[{"name":"a","price":1,"stock":1}]}`,
		"bad override":   `{"products":[],"shippingConfig":{"cost":-5}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := Decode([]byte(raw))
			require.NoError(t, err)
			_, err = New(doc, defaultShipping())
			assert.Error(t, err)
		})
	}
}

func TestLintReportsWarnings(t *testing.T) {
	doc, err := Decode([]byte(`{"products":[{"id":1,"name":"a","price":5,"stock":1,"category":"ghost","compareAtPrice":4}],"categories":[{"id":"real","name":"Real"}]}`))
	require.NoError(t, err)

	issues := Lint(doc)
	assert.Empty(t, issues.Errors())
	fields := map[string]bool{}
	for _, issue := range issues {
		fields[issue.Field] = true
	}
	assert.True(t, fields["sku"])
	assert.True(t, fields["category"])
	assert.True(t, fields["compareAtPrice"])
}

func TestFilterByCategoryAndQuery(t *testing.T) {
	cat := mustCatalog(t, sampleDocument)

	all := cat.Filter(Filter{Category: CategoryAll})
	require.Len(t, all, 3)
	assert.Equal(t, ProductID("1"), all[0].ID, "featured products lead the default order")

	jewelry := cat.Filter(Filter{Category: "joyeria"})
	require.Len(t, jewelry, 2)

	byDescription := cat.Filter(Filter{Query: "SEMILLAS"})
	require.Len(t, byDescription, 1)
	assert.Equal(t, ProductID("3"), byDescription[0].ID)

	assert.Empty(t, cat.Filter(Filter{Category: "bolsos", Query: "collar"}))
}

func TestFilterPriceBoundsAndSort(t *testing.T) {
	cat := mustCatalog(t, sampleDocument)
	min := decimal.NewFromInt(13)
	max := decimal.NewFromInt(30)

	bounded := cat.Filter(Filter{MinPrice: &min, MaxPrice: &max, Sort: enums.SortPriceAsc})
	require.Len(t, bounded, 2)
	assert.Equal(t, ProductID("2"), bounded[0].ID)
	assert.Equal(t, ProductID("1"), bounded[1].ID)

	desc := cat.Filter(Filter{Sort: enums.SortPriceDesc})
	assert.Equal(t, ProductID("3"), desc[0].ID)

	byName := cat.Filter(Filter{Sort: enums.SortName})
	assert.Equal(t, "Aretes de Tagua", byName[0].Name)

	byRating := cat.Filter(Filter{Sort: enums.SortRating})
	assert.Equal(t, ProductID("3"), byRating[0].ID)
	assert.Equal(t, ProductID("2"), byRating[2].ID, "unrated products sort last")
}

func TestLoaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o644))

	loader := NewLoader(config.CatalogConfig{Source: path}, defaultShipping(), nil, nil)
	cat, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())

	again, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, cat, again)
}

func TestLoaderSharesOneFetchAndRetriesAfterFailure(t *testing.T) {
	var hits atomic.Int32
	var fail atomic.Bool
	fail.Store(true)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleDocument))
	}))
	defer srv.Close()

	loader := NewLoader(config.CatalogConfig{Source: srv.URL + "/data/products.json"}, defaultShipping(), srv.Client(), nil)

	_, err := loader.Load(context.Background())
	require.Error(t, err)

	fail.Store(false)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cat, err := loader.Load(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 3, cat.Len())
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, hits.Load(), int32(2+7), "fetches are shared or served from cache")
	before := hits.Load()
	_, err = loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, hits.Load(), "loaded catalog is cached")
}
