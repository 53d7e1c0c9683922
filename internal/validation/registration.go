package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Bryanb141518/api-profecional/internal/models"
)

const (
	MinRegistrationAge = 14
	MinUnrestrictedAge = 18

	AdvisoryRestrictedContent = "Puedes registrarte pero con ciertas restricciones de contenido"
)

// EmailChecker reports whether an email is already taken.
type EmailChecker interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type RegistrationRequest struct {
	Nombre   string
	Apellido *string
	Edad     *int
	Genero   string
	Email    string
	Password string
}

// ValidatedRegistration is a request that passed every field and cross-field
// rule and is ready to be persisted.
type ValidatedRegistration struct {
	User     models.NewUser
	Password string
	Advisory string
}

type RegistrationValidator struct {
	emails    EmailChecker
	passwords PasswordPolicy
	validate  *validator.Validate
}

func NewRegistrationValidator(emails EmailChecker, passwords PasswordPolicy) *RegistrationValidator {
	return &RegistrationValidator{
		emails:    emails,
		passwords: passwords,
		validate:  validator.New(),
	}
}

// Passwords exposes the policy so other flows apply the same rules.
func (v *RegistrationValidator) Passwords() PasswordPolicy {
	return v.passwords
}

// Validate returns the normalized registration or an Errors set listing every
// field violation. Store failures are returned as-is.
func (v *RegistrationValidator) Validate(ctx context.Context, req RegistrationRequest) (ValidatedRegistration, error) {
	var errs Errors

	nombre, err := NormalizeText("nombre", req.Nombre)
	errs.Add("nombre", err)

	var apellido string
	if req.Apellido != nil {
		apellido, err = NormalizeText("apellido", *req.Apellido)
		errs.Add("apellido", err)
	}

	errs.Add("edad", checkAgeRange(req.Edad))

	genero, err := ParseGender(req.Genero)
	errs.Add("genero", err)

	email, err := v.ValidateEmail(ctx, req.Email)
	if err != nil {
		if _, ok := err.(*FieldError); !ok {
			return ValidatedRegistration{}, err
		}
		errs.Add("email", err)
	}

	password, err := v.passwords.Validate(req.Password)
	errs.Add("password", err)

	if len(errs) > 0 {
		return ValidatedRegistration{}, errs
	}

	result := ValidatedRegistration{
		User: models.NewUser{
			Email:    email,
			Nombre:   nombre,
			Apellido: apellido,
			Edad:     req.Edad,
			Genero:   genero,
		},
		Password: password,
	}

	switch {
	case req.Edad == nil:
		errs.Add("edad", newFieldError("edad", ErrMissingAge, "La edad es requerida para completar el registro"))
	case *req.Edad < MinRegistrationAge:
		errs.Add("edad", newFieldError("edad", ErrUnderMinimumAge,
			fmt.Sprintf("Debes tener al menos %d años para registrarte", MinRegistrationAge)))
	case *req.Edad < MinUnrestrictedAge:
		result.Advisory = AdvisoryRestrictedContent
	}

	if nombre != "" && apellido != "" && nombre == apellido {
		errs.Add(NonFieldErrors, newFieldError(NonFieldErrors, ErrDuplicateName,
			"El nombre y el apellido no pueden ser iguales"))
	}

	if len(errs) > 0 {
		return ValidatedRegistration{}, errs
	}
	return result, nil
}

// CheckEmail normalizes raw and checks its syntax only.
func (v *RegistrationValidator) CheckEmail(raw string) (string, error) {
	email := NormalizeEmail(raw)
	if email == "" {
		return "", newFieldError("email", ErrRequired, "El email es obligatorio")
	}
	if err := v.validate.Var(email, "email"); err != nil {
		return "", newFieldError("email", ErrInvalidEmail, "Introduzca una dirección de correo electrónico válida")
	}
	return email, nil
}

// ValidateEmail normalizes raw and checks its syntax and availability. Rule
// violations come back as *FieldError; anything else is a store failure.
func (v *RegistrationValidator) ValidateEmail(ctx context.Context, raw string) (string, error) {
	email, err := v.CheckEmail(raw)
	if err != nil {
		return "", err
	}

	exists, err := v.emails.ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", newFieldError("email", ErrDuplicateEmail, "Este correo ya está registrado")
	}
	return email, nil
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseGender maps a gender code to its enumerated value. An empty code means
// the user chose not to say.
func ParseGender(raw string) (models.Gender, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return models.GenderUndisclosed, nil
	}
	g := models.Gender(code)
	if !g.Valid() {
		return "", newFieldError("genero", ErrInvalidChoice,
			fmt.Sprintf("Género no válido: %q. Opciones disponibles: %s.", code, joinCodes(models.Genders())))
	}
	return g, nil
}

// ParseStudentType maps a student type code. Nil or empty clears the value.
func ParseStudentType(raw *string) (*models.StudentType, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	code := strings.TrimSpace(*raw)
	st := models.StudentType(code)
	if !st.Valid() {
		return nil, newFieldError("tipo_estudiante", ErrInvalidChoice,
			fmt.Sprintf("Tipo de estudiante no válido: %q. Opciones disponibles: %s.", code, joinCodes(models.StudentTypes())))
	}
	return &st, nil
}

func checkAgeRange(edad *int) error {
	if edad == nil {
		return nil
	}
	if *edad < models.MinAge {
		return newFieldError("edad", ErrAgeOutOfRange,
			fmt.Sprintf("La edad debe ser mayor o igual a %d", models.MinAge))
	}
	if *edad > models.MaxAge {
		return newFieldError("edad", ErrAgeOutOfRange,
			fmt.Sprintf("La edad no puede ser mayor a %d años", models.MaxAge))
	}
	return nil
}

func joinCodes[T ~string](codes []T) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
