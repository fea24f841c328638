package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgcheckout "github.com/angelmondragon/storefront/pkg/checkout"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type shippingMethodRequest struct {
	ShippingMethod enums.ShippingMethod `json:"shippingMethod" validate:"required"`
}

type checkoutResponse struct {
	Outcome enums.CheckoutOutcome `json:"outcome"`
	View    storefront.View       `json:"view"`
}

type validateResponse struct {
	Valid      bool                   `json:"valid"`
	Violations pkgcheckout.Violations `json:"violations,omitempty"`
	Fields     map[string]string      `json:"fields,omitempty"`
}

// CheckoutOpen moves the session from the cart to the shipping form.
func CheckoutOpen(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			return checkoutResult(s, s.Checkout().OpenCheckout(ctx), nil)
		})
	}
}

// CheckoutSubmitShipping stores the shipping form and advances to payment.
func CheckoutSubmitShipping(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkout.Data
		if err := validators.DecodeJSON(r, &payload); err != nil {
			serveError(w, r, logg, err)
			return
		}
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			outcome, violations := s.Checkout().SubmitShippingForm(ctx, payload)
			return checkoutResult(s, outcome, violations)
		})
	}
}

// CheckoutBack steps the checkout back one level.
func CheckoutBack(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			return checkoutResult(s, s.Checkout().GoBack(ctx), nil)
		})
	}
}

// CheckoutShippingMethod switches between standard and express shipping.
func CheckoutShippingMethod(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload shippingMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			serveError(w, r, logg, err)
			return
		}
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			outcome, violations := s.Checkout().UpdateShippingMethod(ctx, payload.ShippingMethod)
			return checkoutResult(s, outcome, violations)
		})
	}
}

// CheckoutValidate checks a shipping form without touching the session.
func CheckoutValidate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkout.Data
		if err := validators.DecodeJSON(r, &payload); err != nil {
			serveError(w, r, logg, err)
			return
		}
		violations := checkout.Validate(payload)
		responses.WriteSuccess(w, validateResponse{
			Valid:      len(violations) == 0,
			Violations: violations,
			Fields:     violationFields(violations),
		})
	}
}

func checkoutResult(s *storefront.Session, outcome enums.CheckoutOutcome, violations pkgcheckout.Violations) (any, error) {
	switch outcome {
	case enums.CheckoutOutcomeCartEmpty:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "El carrito está vacío").
			WithDetails(map[string]any{"outcome": outcome})
	case enums.CheckoutOutcomeValidationFailed:
		return nil, violations.Err()
	case enums.CheckoutOutcomeInvalidStep:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout step does not allow this action").
			WithDetails(map[string]any{"outcome": outcome, "step": s.Checkout().Step()})
	}
	return checkoutResponse{Outcome: outcome, View: s.View()}, nil
}

func violationFields(v pkgcheckout.Violations) map[string]string {
	if len(v) == 0 {
		return nil
	}
	return v.Fields()
}
