package trades

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ErrValidationFailed matches every *ValidationError via errors.Is
var ErrValidationFailed = errors.New("validation failed")

// FieldError is one problem with one form field
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// ValidationError lists every invalid field of a form
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) true
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Field returns the first problem reported for name
func (e *ValidationError) Field(name string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldError{}, false
}

const (
	ruleRequiredWhenClosed = "required_when_closed"
	ruleNotBeforeOpen      = "not_before_opened_at"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(closedTradeRules, Form{})
	return v
}

// closedTradeRules: a closed trade needs its exit, and a trade cannot
// close before it opened
func closedTradeRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(Form)

	if f.Status == domain.TradeStatusClosed {
		if f.ExitPrice == nil {
			sl.ReportError(f.ExitPrice, domain.FieldExitPrice, "ExitPrice", ruleRequiredWhenClosed, "")
		}
		if f.ClosedAt == nil || f.ClosedAt.IsZero() {
			sl.ReportError(f.ClosedAt, domain.FieldClosedAt, "ClosedAt", ruleRequiredWhenClosed, "")
		}
	}
	if f.ClosedAt != nil && !f.ClosedAt.IsZero() && !f.OpenedAt.IsZero() && f.ClosedAt.Before(f.OpenedAt) {
		sl.ReportError(f.ClosedAt, domain.FieldClosedAt, "ClosedAt", ruleNotBeforeOpen, "")
	}
}

type criteriaList struct {
	Items []domain.EntryCriterion `json:"entry_criteria" validate:"dive"`
}

// Validate checks the form and its recorded criteria. It returns nil or
// a *ValidationError.
func Validate(f *Form) error {
	if f == nil {
		return &ValidationError{Fields: []FieldError{{Field: "form", Rule: "required", Message: "is required"}}}
	}

	var fields []FieldError
	collect := func(err error) error {
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate trade form: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   fieldPath(fe.Namespace()),
				Rule:    fe.Tag(),
				Message: message(fe.Tag(), fe.Param()),
			})
		}
		return nil
	}

	if err := collect(validate.Struct(f)); err != nil {
		return err
	}
	if f.Criteria != nil {
		if err := collect(validate.Struct(criteriaList{Items: f.Criteria.Recorded()})); err != nil {
			return err
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// fieldPath drops the struct name from a validator namespace
func fieldPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return rest
}

func message(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case ruleRequiredWhenClosed:
		return "is required when status is closed"
	case ruleNotBeforeOpen:
		return "must not be before opened_at"
	case "gt":
		return "must be greater than " + param
	case "gte", "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	}
	return "is invalid (" + rule + ")"
}
