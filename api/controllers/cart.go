package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type addItemRequest struct {
	ProductID catalog.ProductID `json:"productId" validate:"required"`
}

type updateQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type cartResponse struct {
	Outcome enums.CartOutcome `json:"outcome"`
	View    storefront.View   `json:"view"`
}

// CartAddItem adds one unit of a product to the session cart.
func CartAddItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			serveError(w, r, logg, err)
			return
		}
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			outcome := s.Cart().AddItem(ctx, payload.ProductID)
			return cartResult(s, outcome)
		})
	}
}

// CartUpdateQuantity applies a signed delta to a cart line.
func CartUpdateQuantity(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := productIDParam(r)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			serveError(w, r, logg, err)
			return
		}
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			outcome := s.Cart().UpdateQuantity(ctx, id, payload.Delta)
			return cartResult(s, outcome)
		})
	}
}

// CartRemoveItem deletes a cart line.
func CartRemoveItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := productIDParam(r)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			outcome := s.Cart().RemoveItem(ctx, id)
			return cartResult(s, outcome)
		})
	}
}

// CartClear empties the cart.
func CartClear(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			s.Cart().Clear(ctx)
			return cartResult(s, enums.CartOutcomeOK)
		})
	}
}

func cartResult(s *storefront.Session, outcome enums.CartOutcome) (any, error) {
	switch outcome {
	case enums.CartOutcomeUnavailable:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Producto no disponible").
			WithDetails(map[string]any{"outcome": outcome})
	case enums.CartOutcomeStockLimitReached:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Stock máximo alcanzado").
			WithDetails(map[string]any{"outcome": outcome})
	}
	return cartResponse{Outcome: outcome, View: s.View()}, nil
}

func productIDParam(r *http.Request) (catalog.ProductID, error) {
	raw := urlParam(r, "productID")
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return catalog.ProductID(raw), nil
}
