package square

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func TestEnsureIdempotencyKey(t *testing.T) {
	c := &Client{}
	// Provided key should be used verbatim.
	if got := c.ensureIdempotencyKey("pref", "custom-key"); got != "custom-key" {
		t.Fatalf("expected provided key, got %q", got)
	}
	if got := c.ensureIdempotencyKey("prefix", ""); !strings.HasPrefix(got, "prefix-") {
		t.Fatalf("generated idempotency key %q missing prefix", got)
	}
}

func TestRedact(t *testing.T) {
	c := &Client{}
	if out := c.redact("source_id", "cnon:card-nonce-ok"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if out := c.redact("buyer_email", "a@b.co"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeDependency},
		{http.StatusPaymentRequired, pkgerrors.CodeValidation},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestMapSquareError(t *testing.T) {
	c := &Client{}
	table := []struct {
		name     string
		status   int
		payload  string
		wantCode pkgerrors.Code
	}{
		{
			name:     "card declined",
			status:   http.StatusPaymentRequired,
			payload:  `{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"GENERIC_DECLINE"}]}`,
			wantCode: pkgerrors.CodeValidation,
		},
		{
			name:     "idempotency key reused",
			status:   http.StatusConflict,
			payload:  `{"errors":[{"category":"API_ERROR","code":"IDEMPOTENCY_KEY_REUSED"}]}`,
			wantCode: pkgerrors.CodeIdempotency,
		},
	}
	for _, tt := range table {
		err := sqcore.NewAPIError(tt.status, errors.New(tt.payload))
		mapped := c.mapSquareError(err, "operation")
		if mapped == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		typed := pkgerrors.As(mapped)
		if typed == nil {
			t.Fatalf("%s: result is not pkgerror", tt.name)
		}
		if typed.Code() != tt.wantCode {
			t.Fatalf("%s: expected code %s, got %s", tt.name, tt.wantCode, typed.Code())
		}
		if typed.Details() == nil {
			t.Fatalf("%s: expected square error details", tt.name)
		}
	}

	plain := c.mapSquareError(errors.New("dial tcp: timeout"), "create payment")
	if !pkgerrors.IsCode(plain, pkgerrors.CodeDependency) {
		t.Fatalf("transport failures should map to dependency errors, got %v", plain)
	}
}

func TestExtractSquareErrors(t *testing.T) {
	c := &Client{}
	payload := `{"errors":[{"category":"API_ERROR","code":"BAD_REQUEST","detail":"oops"}]}`
	apiErr := sqcore.NewAPIError(http.StatusBadRequest, errors.New(payload))
	got := c.extractSquareErrors(apiErr)
	if len(got) != 1 {
		t.Fatalf("expected 1 error, got %d", len(got))
	}
	if got[0].GetCode() != sq.ErrorCodeBadRequest {
		t.Fatalf("unexpected error code %s", got[0].GetCode())
	}
}

func TestPaymentParamsToSquareRequest(t *testing.T) {
	params := PaymentCreateParams{
		AmountCents:       5250,
		Currency:          "usd",
		LocationID:        "LOC1",
		SourceID:          "cnon:card-nonce-ok",
		ReferenceID:       "ord-1",
		BuyerEmailAddress: "ana@example.com",
		ShippingAddress: &Address{
			FirstName:   "Ana",
			Line1:       "Av. Amazonas 123",
			Locality:    "Quito",
			PostalCode:  "000000",
			CountryCode: "ec",
		},
	}
	req := params.toSquareRequest("key-1")

	if req.IdempotencyKey != "key-1" || req.SourceID != "cnon:card-nonce-ok" {
		t.Fatalf("unexpected request identity %+v", req)
	}
	if req.Autocomplete == nil || *req.Autocomplete {
		t.Fatal("expected delayed capture")
	}
	if req.AmountMoney == nil || *req.AmountMoney.Amount != 5250 || *req.AmountMoney.Currency != sq.Currency("USD") {
		t.Fatalf("unexpected amount %+v", req.AmountMoney)
	}
	if req.ShippingAddress == nil || *req.ShippingAddress.Country != sq.Country("EC") {
		t.Fatalf("unexpected address %+v", req.ShippingAddress)
	}
	if req.ShippingAddress.AddressLine2 != nil {
		t.Fatal("empty line 2 should be omitted")
	}
}
