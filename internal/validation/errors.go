// Package validation turns raw signup input into normalized user fields.
//
// Every failure is reported as a *FieldError that carries the user facing
// message and wraps one of the sentinel errors below, so callers can branch
// with errors.Is while the HTTP layer only ever sees the messages.
package validation

import (
	"errors"
	"strings"
)

// NonFieldErrors is the key used for failures that involve several fields.
const NonFieldErrors = "non_field_errors"

var (
	ErrRequired           = errors.New("required field")
	ErrContainsDigit      = errors.New("digits not allowed")
	ErrInvalidCharacter   = errors.New("invalid character")
	ErrTooShort           = errors.New("too short")
	ErrTooLong            = errors.New("too long")
	ErrMissingDigit       = errors.New("missing digit")
	ErrMissingUppercase   = errors.New("missing uppercase letter")
	ErrMissingLowercase   = errors.New("missing lowercase letter")
	ErrMissingSpecialChar = errors.New("missing special character")
	ErrInvalidChoice      = errors.New("invalid choice")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrAgeOutOfRange      = errors.New("age out of range")
	ErrMissingAge         = errors.New("missing age")
	ErrUnderMinimumAge    = errors.New("under minimum age")
	ErrDuplicateName      = errors.New("given name equals family name")
)

type FieldError struct {
	Field   string
	Message string
	Err     error
}

func newFieldError(field string, err error, message string) *FieldError {
	return &FieldError{Field: field, Message: message, Err: err}
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Errors is the structured error set returned when a payload is rejected.
type Errors []*FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

func (e Errors) Unwrap() []error {
	out := make([]error, 0, len(e))
	for _, fe := range e {
		out = append(out, fe)
	}
	return out
}

// Fields groups the messages by field name, keeping their original order.
func (e Errors) Fields() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// Add records err under field. Joined errors are flattened and *FieldError
// values keep their own message.
func (e *Errors) Add(field string, err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			e.Add(field, inner)
		}
		return
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		*e = append(*e, &FieldError{Field: field, Message: fe.Message, Err: fe.Err})
		return
	}
	*e = append(*e, &FieldError{Field: field, Message: err.Error(), Err: err})
}

// ErrOrNil returns nil for an empty set so callers can return it directly.
func (e Errors) ErrOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// DuplicateEmail builds the error set used when the store rejects an email
// that slipped past the existence check.
func DuplicateEmail() Errors {
	return Errors{newFieldError("email", ErrDuplicateEmail, "Este correo ya está registrado")}
}
