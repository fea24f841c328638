package checkout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Violation names the field and the constraint it failed.
type Violation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

type Violations []Violation

// Fields maps each failing field to its constraint.
func (v Violations) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, violation := range v {
		out[violation.Field] = violation.Constraint
	}
	return out
}

// Err converts the violations into a validation error, or nil when there are none.
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "shipping form is incomplete").WithDetails(map[string]any{
		"fields":     v.Fields(),
		"violations": []Violation(v),
	})
}

// FromValidator flattens validator errors, sorted by field.
func FromValidator(err error) Violations {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return Violations{{Field: "_", Constraint: "invalid", Message: err.Error()}}
	}
	out := make(Violations, 0, len(errs))
	for _, fe := range errs {
		out = append(out, Violation{
			Field:      fe.Field(),
			Constraint: fe.Tag(),
			Message:    messageFor(fe),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}

// StockCheckInput is one cart line checked against current stock before charging.
type StockCheckInput struct {
	ProductID   string
	ProductName string
	Stock       int
	Quantity    int
}

// StockViolationDetail is returned to callers when a line exceeds stock.
type StockViolationDetail struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	Available    int    `json:"available"`
	RequestedQty int    `json:"requested_qty"`
}

// ValidateStock ensures no line asks for more units than the catalog lists.
func ValidateStock(items []StockCheckInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		if item.Quantity <= item.Stock {
			continue
		}
		violations = append(violations, StockViolationDetail{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Available:    item.Stock,
			RequestedQty: item.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("stock exceeded for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
