package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type productListResponse struct {
	Products []catalog.Product `json:"products"`
	Total    int               `json:"total"`
	Category string            `json:"category"`
	Sort     enums.SortKey     `json:"sort"`
}

// CatalogProducts lists products matching the category, text, price and sort query.
func CatalogProducts(cat *catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		products := cat.Filter(filter)
		if products == nil {
			products = []catalog.Product{}
		}
		category := filter.Category
		if category == "" {
			category = catalog.CategoryAll
		}
		responses.WriteSuccess(w, productListResponse{
			Products: products,
			Total:    len(products),
			Category: category,
			Sort:     filter.Sort,
		})
	}
}

// CatalogProduct returns one product by id.
func CatalogProduct(cat *catalog.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := productIDParam(r)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		product, ok := cat.Product(id)
		if !ok {
			serveError(w, r, logg, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CatalogCategories(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories := cat.Categories()
		if categories == nil {
			categories = []catalog.Category{}
		}
		responses.WriteSuccess(w, categories)
	}
}

// CatalogDocument serves the loaded catalog in its source format. It is never cached so
// stock and prices are always fresh.
func CatalogDocument(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipping := cat.Shipping()
		doc := catalog.Document{
			Products:   cat.Products(),
			Categories: cat.Categories(),
			ShippingConfig: &catalog.ShippingOverride{
				Cost:          &shipping.Cost,
				FreeThreshold: &shipping.FreeThreshold,
				ExpressCost:   &shipping.ExpressCost,
			},
		}
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteRaw(w, http.StatusOK, doc)
	}
}

func parseFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	sortKey, err := enums.ParseSortKey(q.Get("sort"))
	if err != nil {
		return catalog.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	minPrice, err := validators.ParseQueryDecimal(r, "min_price")
	if err != nil {
		return catalog.Filter{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
	if err != nil {
		return catalog.Filter{}, err
	}
	if minPrice != nil && maxPrice != nil && minPrice.GreaterThan(*maxPrice) {
		return catalog.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}
	return catalog.Filter{
		Category: strings.TrimSpace(q.Get("category")),
		Query:    validators.SanitizeString(q.Get("q"), 100),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     sortKey,
	}, nil
}

func urlParam(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}
