package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/Bryanb141518/api-profecional/internal/ids"
	"github.com/Bryanb141518/api-profecional/internal/models"
	"github.com/Bryanb141518/api-profecional/internal/security"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

const userColumns = `id, email, nombre, apellido, edad, genero, tipo_estudiante,
		is_active, is_staff, is_superuser, password_hash, created_at, updated_at`

// UserRepository persists users and owns their credentials: passwords are
// hashed here before they reach the database.
type UserRepository struct {
	pool   DBTX
	hasher security.PasswordHasher
}

func NewUserRepository(pool DBTX, hasher security.PasswordHasher) *UserRepository {
	return &UserRepository{pool: pool, hasher: hasher}
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "exists by email").
			Wrap(err)
	}
	return exists, nil
}

// Create hashes password and inserts the user. A concurrent insert of the
// same email loses on the unique index and gets ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, fields models.NewUser, password string) (models.User, error) {
	passwordHash, err := r.hasher.Hash(password)
	if err != nil {
		return models.User{}, oops.Code("USER_CREATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := models.User{
		ID:             ids.New(),
		Email:          fields.Email,
		Nombre:         fields.Nombre,
		Apellido:       fields.Apellido,
		Edad:           fields.Edad,
		Genero:         fields.Genero,
		TipoEstudiante: fields.TipoEstudiante,
		IsActive:       true,
		IsStaff:        fields.IsStaff,
		IsSuperuser:    fields.IsSuperuser,
		PasswordHash:   passwordHash,
	}
	if user.Genero == "" {
		user.Genero = models.GenderUndisclosed
	}

	const query = `
		INSERT INTO users (
			id, email, nombre, apellido, edad, genero, tipo_estudiante,
			is_active, is_staff, is_superuser, password_hash, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err = r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Nombre,
		user.Apellido,
		user.Edad,
		user.Genero,
		user.TipoEstudiante,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// VerifyPassword reports whether plaintext matches the stored hash. A
// malformed hash counts as a mismatch.
func (r *UserRepository) VerifyPassword(plaintext string, passwordHash []byte) bool {
	ok, err := r.hasher.Verify(plaintext, passwordHash)
	return err == nil && ok
}

// DummyHash returns a hash with the live cost settings that matches no
// password.
func (r *UserRepository) DummyHash() []byte {
	return r.hasher.DummyHash()
}

func (r *UserRepository) UpdateStudentType(ctx context.Context, id string, studentType *models.StudentType) error {
	const query = `
		UPDATE users SET tipo_estudiante = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, studentType)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update student type").
			With("user_id", id).
			Wrap(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.Code("USER_LIST_FAILED").Wrap(err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) scanOne(row pgx.Row) (models.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, oops.Code("USER_LOOKUP_FAILED").Wrap(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Nombre,
		&user.Apellido,
		&user.Edad,
		&user.Genero,
		&user.TipoEstudiante,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
