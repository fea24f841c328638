package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/payment"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type createOrderRequest struct {
	SourceToken string `json:"sourceToken,omitempty" validate:"max=512"`
}

type providerErrorRequest struct {
	Message string `json:"message,omitempty" validate:"max=500"`
}

type paymentResponse struct {
	payment.Result
	View storefront.View `json:"view"`
}

// PaymentOrderRequest previews the order the provider would receive for the current
// cart and shipping form.
func PaymentOrderRequest(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveSession(w, r, sessions, logg, http.StatusOK, func(_ context.Context, s *storefront.Session) (any, error) {
			if s.Checkout().Step() != enums.CheckoutStepPayment {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not at the payment step")
			}
			req, err := s.Payment().BuildOrderRequest()
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order cannot be built")
			}
			return req, nil
		})
	}
}

// PaymentCreateOrder opens a provider order for the session cart.
func PaymentCreateOrder(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			serveError(w, r, logg, err)
			return
		}
		serveSession(w, r, sessions, logg, http.StatusCreated, func(ctx context.Context, s *storefront.Session) (any, error) {
			res := s.Payment().CreateOrder(ctx, payload.SourceToken)
			if res.Err != nil {
				return nil, res.Err
			}
			return paymentResponse{Result: res, View: s.View()}, nil
		})
	}
}

// PaymentApprove captures an approved order and completes checkout.
func PaymentApprove(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			return paymentResult(s, s.Payment().OnApproved(ctx, orderID))
		})
	}
}

// PaymentCancel releases the pending order after the buyer closed the provider flow.
func PaymentCancel(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			return paymentResult(s, s.Payment().OnCancelled(ctx, orderID))
		})
	}
}

// PaymentError records a failure reported by the provider's client-side flow. The
// report itself succeeds; the outcome carries what happened to the order.
func PaymentError(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			serveError(w, r, logg, err)
			return
		}
		var payload providerErrorRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			serveError(w, r, logg, err)
			return
		}
		var cause error
		if msg := validators.SanitizeString(payload.Message, 500); msg != "" {
			cause = errors.New(msg)
		}
		serveSession(w, r, sessions, logg, http.StatusOK, func(ctx context.Context, s *storefront.Session) (any, error) {
			res := s.Payment().OnError(ctx, orderID, cause)
			res.Err = nil
			return paymentResponse{Result: res, View: s.View()}, nil
		})
	}
}

// paymentResult reports ignored callbacks as a successful no-op; provider failures are
// returned as errors.
func paymentResult(s *storefront.Session, res payment.Result) (any, error) {
	if res.Outcome == enums.PaymentOutcomeErrored && res.Err != nil {
		return nil, res.Err
	}
	res.Err = nil
	return paymentResponse{Result: res, View: s.View()}, nil
}

func orderIDParam(r *http.Request) (string, error) {
	id := urlParam(r, "orderID")
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return id, nil
}
