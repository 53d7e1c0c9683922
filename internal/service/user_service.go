package service

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/Bryanb141518/api-profecional/internal/config"
	"github.com/Bryanb141518/api-profecional/internal/models"
	"github.com/Bryanb141518/api-profecional/internal/repository"
	"github.com/Bryanb141518/api-profecional/internal/validation"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	users     UserStore
	validator *validation.RegistrationValidator
	log       zerolog.Logger
}

func NewUserService(users UserStore, cfg *config.AppConfig, log zerolog.Logger) *UserService {
	policy := validation.NewPasswordPolicy(cfg.Security.PasswordMinLength, cfg.Security.PasswordMaxLength)
	return &UserService{
		users:     users,
		validator: validation.NewRegistrationValidator(users, policy),
		log:       log,
	}
}

func (s *UserService) Profile(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// SetStudentType records the student type selected after registration. A nil
// or empty code clears it.
func (s *UserService) SetStudentType(ctx context.Context, userID string, code *string) (models.User, error) {
	studentType, err := validation.ParseStudentType(code)
	if err != nil {
		var set validation.Errors
		set.Add("tipo_estudiante", err)
		return models.User{}, set
	}

	if err := s.users.UpdateStudentType(ctx, userID, studentType); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return s.Profile(ctx, userID)
}

type ProvisionInput struct {
	Email     string
	Password  string
	Nombre    string
	Staff     bool
	Superuser bool
}

// ProvisionUser creates an administrative account outside the public
// registration flow. Email, name and password rules still apply; age does not.
func (s *UserService) ProvisionUser(ctx context.Context, input ProvisionInput) (models.User, error) {
	var errs validation.Errors

	email, err := s.validator.ValidateEmail(ctx, input.Email)
	if err != nil {
		if _, ok := err.(*validation.FieldError); !ok {
			return models.User{}, err
		}
		errs.Add("email", err)
	}

	nombre, err := validation.NormalizeText("nombre", input.Nombre)
	errs.Add("nombre", err)

	password, err := s.validator.Passwords().Validate(input.Password)
	errs.Add("password", err)

	if err := errs.ErrOrNil(); err != nil {
		return models.User{}, err
	}

	user, err := s.users.Create(ctx, models.NewUser{
		Email:       email,
		Nombre:      nombre,
		Genero:      models.GenderUndisclosed,
		IsStaff:     input.Staff || input.Superuser,
		IsSuperuser: input.Superuser,
	}, password)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.User{}, validation.DuplicateEmail()
		}
		return models.User{}, err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Bool("staff", user.IsStaff).
		Bool("superuser", user.IsSuperuser).
		Msg("user provisioned")
	return user, nil
}

// ListUsers pages through accounts, newest first. page starts at 1.
func (s *UserService) ListUsers(ctx context.Context, page, perPage int) ([]models.User, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	// Pages past the largest representable offset are empty.
	if page-1 > math.MaxInt/perPage {
		return []models.User{}, nil
	}
	users, err := s.users.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
