package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing email")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing email" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]string{"email": "required"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("provider down")
	wrapped := Wrap(CodeDependency, cause, "create order")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if !strings.Contains(wrapped.Error(), "provider down") {
		t.Fatalf("wrapped error text should include cause, got %q", wrapped.Error())
	}
}

func TestAsAndIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeStateConflict, "cart is empty"))
	if got := As(err); got == nil || got.Code() != CodeStateConflict {
		t.Fatalf("As failed to return typed error")
	}
	if !IsCode(err, CodeStateConflict) {
		t.Fatalf("expected IsCode to match wrapped code")
	}
	if IsCode(err, CodeConflict) {
		t.Fatalf("IsCode matched the wrong code")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(New(CodeDependency, "capture failed")) {
		t.Fatalf("dependency errors should be retryable")
	}
	if Retryable(New(CodeConflict, "stock limit reached")) {
		t.Fatalf("stock conflicts are not retryable")
	}
	if Retryable(stdErrors.New("plain")) {
		t.Fatalf("untyped errors are not retryable")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("save receipt: %w", Wrap(CodeInternal, stdErrors.New("disk full"), "journal"))
	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("expected internal code in dump, got %s", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected three chain entries, got %d: %v", len(d.Chain), d.Chain)
	}
	if d.PG != nil {
		t.Fatalf("non postgres error should not carry pg detail")
	}
}

func TestDumpFieldsOmitsEmptyPostgresDetails(t *testing.T) {
	fields := Dump(New(CodeValidation, "bad")).Fields()
	if _, ok := fields["pg"]; ok {
		t.Fatalf("pg fields should be omitted without a postgres error")
	}
	if fields["error_code"] != CodeValidation {
		t.Fatalf("unexpected error_code %v", fields["error_code"])
	}
}

func TestDumpReadsPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "receipts_order_id_key", TableName: "receipts"}
	err := Wrap(CodeConflict, fmt.Errorf("insert: %w", pgErr), "receipt exists")

	d := Dump(err)
	if d.PG == nil || d.PG.Constraint != "receipts_order_id_key" || d.PG.Table != "receipts" {
		t.Fatalf("unexpected pg detail %+v", d.PG)
	}
	if got := PostgresDetail(&pq.Error{Code: "23503", Table: "receipt_lines"}); got == nil || got.Code != "23503" {
		t.Fatalf("expected lib/pq detail, got %+v", got)
	}
	if PostgresDetail(stdErrors.New("plain")) != nil {
		t.Fatalf("plain errors carry no postgres detail")
	}
}
