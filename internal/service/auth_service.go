package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/Bryanb141518/api-profecional/internal/config"
	"github.com/Bryanb141518/api-profecional/internal/ids"
	"github.com/Bryanb141518/api-profecional/internal/models"
	"github.com/Bryanb141518/api-profecional/internal/queue"
	"github.com/Bryanb141518/api-profecional/internal/repository"
	"github.com/Bryanb141518/api-profecional/internal/security"
	"github.com/Bryanb141518/api-profecional/internal/validation"
)

var (
	// ErrInvalidCredentials is returned for an unknown email, a wrong
	// password, an inactive account and a bad refresh token alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInactiveUser       = errors.New("user inactive")
)

type UserStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, fields models.NewUser, password string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateStudentType(ctx context.Context, id string, studentType *models.StudentType) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	VerifyPassword(plaintext string, passwordHash []byte) bool
	DummyHash() []byte
}

type SessionStore interface {
	Save(ctx context.Context, session models.Session) error
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	Touch(ctx context.Context, sessionID string, ip string, userAgent string) error
}

// TokenIssuer mints the credentials handed to clients. Signing details stay
// behind this interface.
type TokenIssuer interface {
	AccessToken(user models.User, session models.Session) (string, error)
	RefreshToken() (token string, hash []byte, err error)
	ParseAccessToken(token string) (*security.AccessClaims, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event queue.Event) error
}

type AuthService struct {
	users     UserStore
	sessions  SessionStore
	tokens    TokenIssuer
	events    EventPublisher
	validator *validation.RegistrationValidator
	cfg       *config.AppConfig
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	tokens TokenIssuer,
	events EventPublisher,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	policy := validation.NewPasswordPolicy(cfg.Security.PasswordMinLength, cfg.Security.PasswordMaxLength)
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		events:    events,
		validator: validation.NewRegistrationValidator(users, policy),
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

type TokenPair struct {
	Access  string
	Refresh string
}

// ClientInfo describes the device a session is opened from.
type ClientInfo struct {
	DeviceID   string
	DeviceName string
	IPAddress  string
	UserAgent  string
}

type AuthResult struct {
	Tokens   TokenPair
	User     models.User
	DeviceID string
}

type RegistrationResult struct {
	AuthResult
	Advisory string
}

// Register validates req, creates the user and signs them in.
func (s *AuthService) Register(ctx context.Context, req validation.RegistrationRequest, client ClientInfo) (RegistrationResult, error) {
	validated, err := s.validator.Validate(ctx, req)
	if err != nil {
		return RegistrationResult{}, err
	}
	return s.RegisterAndIssueTokens(ctx, validated, client)
}

// RegisterAndIssueTokens persists an already validated registration and
// always issues a token pair for the new user.
func (s *AuthService) RegisterAndIssueTokens(ctx context.Context, reg validation.ValidatedRegistration, client ClientInfo) (RegistrationResult, error) {
	user, err := s.users.Create(ctx, reg.User, reg.Password)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return RegistrationResult{}, validation.DuplicateEmail()
		}
		return RegistrationResult{}, err
	}

	if client.DeviceName == "" {
		client.DeviceName = "Nuevo dispositivo"
	}
	result, err := s.createSession(ctx, user, client)
	if err != nil {
		return RegistrationResult{}, err
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, queue.Event{Type: queue.EventUserRegistered, UserID: user.ID, OccurredAt: s.now()}); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("publish registration event failed")
		}
	}

	s.log.Info().Str("user_id", user.ID).Bool("advisory", reg.Advisory != "").Msg("user registered")

	return RegistrationResult{AuthResult: result, Advisory: reg.Advisory}, nil
}

type LoginInput struct {
	Email    string
	Password string
	Client   ClientInfo
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email, err := s.validator.CheckEmail(input.Email)
	if err != nil {
		var set validation.Errors
		set.Add("email", err)
		return AuthResult{}, set
	}
	password := strings.TrimSpace(input.Password)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same cost as a real check so response time does not reveal
			// whether the email exists.
			s.users.VerifyPassword(password, s.users.DummyHash())
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	if !s.users.VerifyPassword(password, user.PasswordHash) || !user.IsActive {
		return AuthResult{}, ErrInvalidCredentials
	}

	if input.Client.DeviceName == "" {
		input.Client.DeviceName = "Dispositivo desconocido"
	}
	return s.createSession(ctx, user, input.Client)
}

// Refresh rotates a refresh token and issues a new access token for the same
// session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (AuthResult, error) {
	if refreshToken == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	session, err := s.sessions.FindByRefreshHash(ctx, security.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, oops.Code("AUTH_REFRESH_FAILED").Wrap(err)
	}

	if session.ExpiresAt.Before(s.now()) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return AuthResult{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, oops.Code("AUTH_REFRESH_FAILED").Wrap(err)
	}
	if !user.IsActive {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, hash, err := s.tokens.RefreshToken()
	if err != nil {
		return AuthResult{}, err
	}
	session.RefreshTokenHash = hash
	session.ExpiresAt = s.now().Add(s.cfg.Security.JWTRefreshTTL)
	if client.IPAddress != "" {
		session.IPAddress = client.IPAddress
	}
	if client.UserAgent != "" {
		session.UserAgent = client.UserAgent
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return AuthResult{}, err
	}

	access, err := s.tokens.AccessToken(user, session)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		Tokens:   TokenPair{Access: access, Refresh: token},
		User:     user,
		DeviceID: session.DeviceID,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.DeleteByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil
	}
	return err
}

// Principal is the authenticated caller behind an access token.
type Principal struct {
	User      models.User
	SessionID string
	DeviceID  string
}

// Authenticate resolves an access token to its live session and user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string, client ClientInfo) (Principal, error) {
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}
	if !ids.Valid(claims.SessionID) || !ids.Valid(claims.UserID) {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	if session.UserID != claims.UserID || session.DeviceID != claims.DeviceID {
		return Principal{}, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	if !user.IsActive {
		return Principal{}, ErrInactiveUser
	}

	if err := s.sessions.Touch(ctx, session.ID, client.IPAddress, client.UserAgent); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("touch session failed")
	}

	return Principal{User: user, SessionID: session.ID, DeviceID: session.DeviceID}, nil
}

func (s *AuthService) createSession(ctx context.Context, user models.User, client ClientInfo) (AuthResult, error) {
	refreshToken, refreshHash, err := s.tokens.RefreshToken()
	if err != nil {
		return AuthResult{}, err
	}

	deviceID := client.DeviceID
	if deviceID == "" {
		deviceID = ids.New()
	}

	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		DeviceID:         deviceID,
		DeviceName:       client.DeviceName,
		RefreshTokenHash: refreshHash,
		IPAddress:        client.IPAddress,
		UserAgent:        client.UserAgent,
		ExpiresAt:        s.now().Add(s.cfg.Security.JWTRefreshTTL),
	}

	accessToken, err := s.tokens.AccessToken(user, session)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return AuthResult{}, err
	}

	if err := s.enforceSessionLimit(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("enforce session limit failed")
	}

	return AuthResult{
		Tokens:   TokenPair{Access: accessToken, Refresh: refreshToken},
		User:     user,
		DeviceID: deviceID,
	}, nil
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, userID string) error {
	count, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count <= s.cfg.Security.MaxSessions {
		return nil
	}
	return s.sessions.DeleteOldestSessions(ctx, userID, s.cfg.Security.MaxSessions)
}
