package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxNameLength matches the VARCHAR(50) name columns.
const MaxNameLength = 50

// NormalizeText validates a free text name field and returns its display
// form: every word capitalized and separated by a single space.
func NormalizeText(label, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", newFieldError(label, ErrRequired, fmt.Sprintf("El %s es obligatorio", label))
	}

	for _, r := range value {
		if unicode.IsDigit(r) {
			return "", newFieldError(label, ErrContainsDigit, fmt.Sprintf("El %s no puede contener números", label))
		}
	}

	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return "", newFieldError(label, ErrInvalidCharacter, fmt.Sprintf("El %s solo puede contener letras y espacios", label))
		}
	}

	// cases.Caser keeps state between calls, so each call gets its own.
	caser := cases.Title(language.Spanish)
	words := strings.Fields(value)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	normalized := strings.Join(words, " ")
	if utf8.RuneCountInString(normalized) > MaxNameLength {
		return "", newFieldError(label, ErrTooLong,
			fmt.Sprintf("Asegúrese de que este campo no tenga más de %d caracteres.", MaxNameLength))
	}
	return normalized, nil
}
