package checkout

import (
	"errors"
	"strings"
)

var (
	ErrEmptyCart    = errors.New("cart is empty, nothing to checkout")
	ErrMissingUpiID = errors.New("UPI id is required for UPI payments")
	ErrRequired     = errors.New("field is required")
	ErrInvalidEmail = errors.New("email address is malformed")
	ErrUnknownPay   = errors.New("unknown payment method")
	ErrNoActive     = errors.New("no order has been placed in this session")
)

// FieldError is one violated checkout rule.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationError aggregates every violated field so a form can show them at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "checkout validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is find ErrEmptyCart, ErrMissingUpiID and friends.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		errs = append(errs, f)
	}
	return errs
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Err: err})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
