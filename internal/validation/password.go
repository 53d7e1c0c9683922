package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMinPasswordLength = 8
	DefaultMaxPasswordLength = 128

	// SpecialChars is the set a password must draw at least one character from.
	SpecialChars = `!@#$%^&*(),.?":{}|<>`
)

// PasswordRule is a single composition check applied after the length checks.
type PasswordRule struct {
	Err     error
	Message string
	Check   func(password string) bool
}

type PasswordPolicy struct {
	MinLength int
	MaxLength int
	Rules     []PasswordRule
}

// NewPasswordPolicy returns the standard rule set with the given length
// bounds. Non-positive bounds fall back to the defaults.
func NewPasswordPolicy(minLength, maxLength int) PasswordPolicy {
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxPasswordLength
	}
	return PasswordPolicy{
		MinLength: minLength,
		MaxLength: maxLength,
		Rules: []PasswordRule{
			{
				Err:     ErrMissingDigit,
				Message: "La contraseña debe contener al menos un número",
				Check:   containsAny(func(r rune) bool { return r >= '0' && r <= '9' }),
			},
			{
				Err:     ErrMissingUppercase,
				Message: "La contraseña debe contener al menos una letra mayúscula",
				Check:   containsAny(func(r rune) bool { return r >= 'A' && r <= 'Z' }),
			},
			{
				Err:     ErrMissingLowercase,
				Message: "La contraseña debe contener al menos una letra minúscula",
				Check:   containsAny(func(r rune) bool { return r >= 'a' && r <= 'z' }),
			},
			{
				Err:     ErrMissingSpecialChar,
				Message: "La contraseña debe contener al menos un carácter especial",
				Check:   func(p string) bool { return strings.ContainsAny(p, SpecialChars) },
			},
		},
	}
}

func DefaultPasswordPolicy() PasswordPolicy {
	return NewPasswordPolicy(DefaultMinPasswordLength, DefaultMaxPasswordLength)
}

// Validate checks raw against every rule and returns the trimmed password.
// An empty value stops evaluation; otherwise all violations are reported
// together as a joined error of *FieldError values.
func (p PasswordPolicy) Validate(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", newFieldError("password", ErrRequired, "El password es obligatorio")
	}

	var errs []error
	length := utf8.RuneCountInString(value)
	if length < p.MinLength {
		errs = append(errs, newFieldError("password", ErrTooShort,
			fmt.Sprintf("La contraseña debe tener al menos %d caracteres", p.MinLength)))
	}
	if length > p.MaxLength {
		errs = append(errs, newFieldError("password", ErrTooLong,
			fmt.Sprintf("La contraseña debe tener máximo %d caracteres", p.MaxLength)))
	}

	for _, rule := range p.Rules {
		if !rule.Check(value) {
			errs = append(errs, newFieldError("password", rule.Err, rule.Message))
		}
	}

	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return value, nil
}

func containsAny(match func(rune) bool) func(string) bool {
	return func(s string) bool {
		for _, r := range s {
			if match(r) {
				return true
			}
		}
		return false
	}
}
