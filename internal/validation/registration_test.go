package validation_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bryanb141518/api-profecional/internal/models"
	"github.com/Bryanb141518/api-profecional/internal/validation"
)

type fakeEmails struct {
	taken map[string]bool
	err   error
	seen  []string
}

func (f *fakeEmails) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.seen = append(f.seen, email)
	if f.err != nil {
		return false, f.err
	}
	return f.taken[email], nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func validRequest() validation.RegistrationRequest {
	return validation.RegistrationRequest{
		Nombre:   "Juan",
		Apellido: strPtr("Perez"),
		Edad:     intPtr(20),
		Genero:   "M",
		Email:    "juan@gmail.com",
		Password: "Abc123!@",
	}
}

func newValidator(emails *fakeEmails) *validation.RegistrationValidator {
	return validation.NewRegistrationValidator(emails, validation.DefaultPasswordPolicy())
}

func TestRegistrationValidator_Valid(t *testing.T) {
	emails := &fakeEmails{}
	req := validRequest()
	req.Nombre = "  juan  carlos "
	req.Email = "  Juan@Gmail.COM "

	got, err := newValidator(emails).Validate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Juan Carlos", got.User.Nombre)
	assert.Equal(t, "Perez", got.User.Apellido)
	assert.Equal(t, "juan@gmail.com", got.User.Email)
	assert.Equal(t, models.GenderMale, got.User.Genero)
	require.NotNil(t, got.User.Edad)
	assert.Equal(t, 20, *got.User.Edad)
	assert.Equal(t, "Abc123!@", got.Password)
	assert.Empty(t, got.Advisory)
	assert.Equal(t, []string{"juan@gmail.com"}, emails.seen)
}

func TestRegistrationValidator_GenderDefaultsToUndisclosed(t *testing.T) {
	req := validRequest()
	req.Genero = ""

	got, err := newValidator(&fakeEmails{}).Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.GenderUndisclosed, got.User.Genero)
}

func TestRegistrationValidator_FamilyNameOptionalWhenAbsent(t *testing.T) {
	req := validRequest()
	req.Apellido = nil

	got, err := newValidator(&fakeEmails{}).Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, got.User.Apellido)
}

func TestRegistrationValidator_Ages(t *testing.T) {
	tests := []struct {
		name         string
		edad         *int
		wantErr      error
		wantAdvisory bool
	}{
		{name: "missing", edad: nil, wantErr: validation.ErrMissingAge},
		{name: "zero", edad: intPtr(0), wantErr: validation.ErrAgeOutOfRange},
		{name: "ten", edad: intPtr(10), wantErr: validation.ErrUnderMinimumAge},
		{name: "thirteen", edad: intPtr(13), wantErr: validation.ErrUnderMinimumAge},
		{name: "fourteen", edad: intPtr(14), wantAdvisory: true},
		{name: "seventeen", edad: intPtr(17), wantAdvisory: true},
		{name: "eighteen", edad: intPtr(18)},
		{name: "one hundred twenty", edad: intPtr(120)},
		{name: "one hundred twenty one", edad: intPtr(121), wantErr: validation.ErrAgeOutOfRange},
		{name: "one hundred fifty", edad: intPtr(150), wantErr: validation.ErrAgeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.Edad = tt.edad

			got, err := newValidator(&fakeEmails{}).Validate(context.Background(), req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)

				var set validation.Errors
				require.True(t, errors.As(err, &set))
				assert.Contains(t, set.Fields(), "edad")
				return
			}
			require.NoError(t, err)
			if tt.wantAdvisory {
				assert.Equal(t, validation.AdvisoryRestrictedContent, got.Advisory)
			} else {
				assert.Empty(t, got.Advisory)
			}
		})
	}
}

func TestRegistrationValidator_DuplicateName(t *testing.T) {
	req := validRequest()
	req.Nombre = "juan"
	req.Apellido = strPtr("JUAN")

	_, err := newValidator(&fakeEmails{}).Validate(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrDuplicateName)

	var set validation.Errors
	require.True(t, errors.As(err, &set))
	assert.Equal(t, []string{"El nombre y el apellido no pueden ser iguales"}, set.Fields()[validation.NonFieldErrors])
}

func TestRegistrationValidator_DuplicateEmail(t *testing.T) {
	emails := &fakeEmails{taken: map[string]bool{"juan@gmail.com": true}}

	_, err := newValidator(emails).Validate(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrDuplicateEmail)

	var set validation.Errors
	require.True(t, errors.As(err, &set))
	assert.Equal(t, []string{"Este correo ya está registrado"}, set.Fields()["email"])
}

func TestRegistrationValidator_InvalidEmailSkipsLookup(t *testing.T) {
	emails := &fakeEmails{}
	req := validRequest()
	req.Email = "not-an-email"

	_, err := newValidator(emails).Validate(context.Background(), req)
	assert.ErrorIs(t, err, validation.ErrInvalidEmail)
	assert.Empty(t, emails.seen)
}

func TestRegistrationValidator_InvalidGender(t *testing.T) {
	req := validRequest()
	req.Genero = "X"

	_, err := newValidator(&fakeEmails{}).Validate(context.Background(), req)
	assert.ErrorIs(t, err, validation.ErrInvalidChoice)
}

func TestRegistrationValidator_CollectsEveryFieldError(t *testing.T) {
	req := validation.RegistrationRequest{
		Nombre:   "Juan123",
		Apellido: strPtr(""),
		Edad:     intPtr(200),
		Genero:   "Z",
		Email:    "bad",
		Password: "abc",
	}

	_, err := newValidator(&fakeEmails{}).Validate(context.Background(), req)
	require.Error(t, err)

	var set validation.Errors
	require.True(t, errors.As(err, &set))
	fields := set.Fields()
	for _, key := range []string{"nombre", "apellido", "edad", "genero", "email", "password"} {
		assert.Contains(t, fields, key)
	}
	assert.Len(t, fields["password"], 4)
	assert.NotContains(t, fields, validation.NonFieldErrors)
}

func TestRegistrationValidator_CrossFieldRunsOnlyAfterFieldsPass(t *testing.T) {
	req := validRequest()
	req.Edad = nil
	req.Password = "short"

	_, err := newValidator(&fakeEmails{}).Validate(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrTooShort)
	assert.NotErrorIs(t, err, validation.ErrMissingAge)
}

func TestRegistrationValidator_StoreFailureIsOpaque(t *testing.T) {
	storeErr := errors.New("connection refused")

	_, err := newValidator(&fakeEmails{err: storeErr}).Validate(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)

	var set validation.Errors
	assert.False(t, errors.As(err, &set))
}

func TestParseStudentType(t *testing.T) {
	st, err := validation.ParseStudentType(strPtr("U"))
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, models.StudentTypeUniversity, *st)

	st, err = validation.ParseStudentType(nil)
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = validation.ParseStudentType(strPtr("X"))
	assert.ErrorIs(t, err, validation.ErrInvalidChoice)
}

func TestRegistrationValidator_NameLength(t *testing.T) {
	tests := []struct {
		name     string
		nombre   string
		apellido string
		tooLong  []string
	}{
		{name: "both at limit", nombre: strings.Repeat("a", 50), apellido: strings.Repeat("b", 50)},
		{name: "given name over", nombre: strings.Repeat("a", 51), apellido: "Perez", tooLong: []string{"nombre"}},
		{name: "family name over", nombre: "Juan", apellido: strings.Repeat("b", 51), tooLong: []string{"apellido"}},
		{name: "both over", nombre: strings.Repeat("a", 60), apellido: strings.Repeat("b", 60), tooLong: []string{"nombre", "apellido"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.Nombre = tt.nombre
			req.Apellido = strPtr(tt.apellido)

			got, err := newValidator(&fakeEmails{}).Validate(context.Background(), req)
			if len(tt.tooLong) == 0 {
				require.NoError(t, err)
				assert.Len(t, []rune(got.User.Nombre), 50)
				assert.Len(t, []rune(got.User.Apellido), 50)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, validation.ErrTooLong)
			var set validation.Errors
			require.True(t, errors.As(err, &set))
			fields := set.Fields()
			for _, field := range tt.tooLong {
				assert.Equal(t, []string{"Asegúrese de que este campo no tenga más de 50 caracteres."}, fields[field])
			}
		})
	}
}
