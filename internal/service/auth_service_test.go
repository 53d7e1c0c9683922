package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bryanb141518/api-profecional/internal/models"
	"github.com/Bryanb141518/api-profecional/internal/queue"
	"github.com/Bryanb141518/api-profecional/internal/security"
	"github.com/Bryanb141518/api-profecional/internal/testkit/authfakes"
	"github.com/Bryanb141518/api-profecional/internal/validation"
)

type authFixture struct {
	svc      *AuthService
	users    *authfakes.Users
	sessions *authfakes.Sessions
	events   *authfakes.Publisher
	issuer   *security.JWTIssuer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := authfakes.Config()
	f := &authFixture{
		users:    authfakes.NewUsers(),
		sessions: authfakes.NewSessions(),
		events:   &authfakes.Publisher{},
		issuer:   security.NewJWTIssuer(cfg.Security.JWTAccessSecret, cfg.Security.JWTAccessTTL),
	}
	f.svc = NewAuthService(f.users, f.sessions, f.issuer, f.events, cfg, zerolog.Nop())
	return f
}

func (f *authFixture) seedUser(t *testing.T, email, password string, active bool) models.User {
	t.Helper()
	return f.users.Add(models.User{
		Email:        email,
		Nombre:       "Ana",
		Genero:       models.GenderFemale,
		IsActive:     active,
		PasswordHash: authfakes.Hash(password),
	})
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func juanPerez() validation.RegistrationRequest {
	return validation.RegistrationRequest{
		Nombre:   "juan",
		Apellido: strPtr("perez"),
		Edad:     intPtr(20),
		Genero:   "M",
		Email:    "juan@gmail.com",
		Password: "Abc123!@",
	}
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.Register(context.Background(), juanPerez(), ClientInfo{IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Tokens.Access)
	assert.NotEmpty(t, res.Tokens.Refresh)
	assert.Empty(t, res.Advisory)
	assert.Equal(t, "Juan", res.User.Nombre)
	assert.Equal(t, "Perez", res.User.Apellido)
	assert.Equal(t, "juan@gmail.com", res.User.Email)
	assert.Equal(t, authfakes.Hash("Abc123!@"), res.User.PasswordHash)

	claims, err := f.issuer.ParseAccessToken(res.Tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, res.DeviceID, claims.DeviceID)

	session, err := f.sessions.GetByID(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, security.HashRefreshToken(res.Tokens.Refresh), session.RefreshTokenHash)
	assert.Equal(t, "Nuevo dispositivo", session.DeviceName)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, queue.EventUserRegistered, events[0].Type)
	assert.Equal(t, res.User.ID, events[0].UserID)
}

func TestAuthService_RegisterMinorGetsAdvisory(t *testing.T) {
	f := newAuthFixture(t)
	req := juanPerez()
	req.Edad = intPtr(15)

	res, err := f.svc.Register(context.Background(), req, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, validation.AdvisoryRestrictedContent, res.Advisory)
	assert.NotEmpty(t, res.Tokens.Access)
}

func TestAuthService_RegisterRejectsInvalidInput(t *testing.T) {
	f := newAuthFixture(t)
	req := juanPerez()
	req.Edad = intPtr(10)

	_, err := f.svc.Register(context.Background(), req, ClientInfo{})
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrUnderMinimumAge)

	ok, _ := f.users.ExistsByEmail(context.Background(), "juan@gmail.com")
	assert.False(t, ok)
	assert.Zero(t, f.sessions.Size())
	assert.Empty(t, f.events.Events())
}

func TestAuthService_RegisterDuplicateFromStore(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "juan@gmail.com", "Abc123!@", true)

	_, err := f.svc.RegisterAndIssueTokens(context.Background(), validation.ValidatedRegistration{
		User:     models.NewUser{Email: "juan@gmail.com", Nombre: "Juan"},
		Password: "Abc123!@",
	}, ClientInfo{})
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrDuplicateEmail)

	var set validation.Errors
	require.True(t, errors.As(err, &set))
	assert.Equal(t, []string{"Este correo ya está registrado"}, set.Fields()["email"])
}

func TestAuthService_RegisterSurvivesPublishFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.events.Err = errors.New("redis down")

	res, err := f.svc.Register(context.Background(), juanPerez(), ClientInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Tokens.Access)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "ana@example.com", "Abc123!@", true)

	res, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "  ANA@example.com ",
		Password: "Abc123!@",
		Client:   ClientInfo{DeviceID: "phone"},
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	assert.Equal(t, "phone", res.DeviceID)

	claims, err := f.issuer.ParseAccessToken(res.Tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "ana@example.com", "Abc123!@", true)
	f.seedUser(t, "off@example.com", "Abc123!@", false)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "ana@example.com", password: "Wrong123!"},
		{name: "unknown email", email: "nobody@example.com", password: "Abc123!@"},
		{name: "inactive user", email: "off@example.com", password: "Abc123!@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), LoginInput{Email: tt.email, Password: tt.password})
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
	assert.Zero(t, f.sessions.Size())
}

func TestAuthService_LoginRejectsMalformedEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "not-an-email", Password: "Abc123!@"})
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidEmail)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	var set validation.Errors
	require.True(t, errors.As(err, &set))
	assert.Equal(t, []string{"Introduzca una dirección de correo electrónico válida"}, set.Fields()["email"])
	assert.Empty(t, f.users.Verified)
}

func TestAuthService_LoginUnknownEmailStillVerifies(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, f.users.Verified, 1)
	assert.Equal(t, f.users.DummyHash(), f.users.Verified[0])
}

func TestAuthService_LoginStoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.users.Err = errors.New("connection reset")

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "Abc123!@"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_SessionLimit(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "ana@example.com", "Abc123!@", true)

	for _, device := range []string{"a", "b", "c"} {
		_, err := f.svc.Login(context.Background(), LoginInput{
			Email:    "ana@example.com",
			Password: "Abc123!@",
			Client:   ClientInfo{DeviceID: device},
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, f.sessions.Size())
}

func TestAuthService_SameDeviceReplacesSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "ana@example.com", "Abc123!@", true)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(context.Background(), LoginInput{
			Email:    "ana@example.com",
			Password: "Abc123!@",
			Client:   ClientInfo{DeviceID: "laptop"},
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.sessions.Size())
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "ana@example.com", "Abc123!@", true)

	first, err := f.svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "Abc123!@"})
	require.NoError(t, err)

	second, err := f.svc.Refresh(context.Background(), first.Tokens.Refresh, ClientInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.Refresh, second.Tokens.Refresh)
	assert.Equal(t, first.DeviceID, second.DeviceID)

	_, err = f.svc.Refresh(context.Background(), first.Tokens.Refresh, ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Refresh(context.Background(), second.Tokens.Refresh, ClientInfo{})
	assert.NoError(t, err)
}

func TestAuthService_RefreshRejectsExpiredSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "ana@example.com", "Abc123!@", true)

	res, err := f.svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "Abc123!@"})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	_, err = f.svc.Refresh(context.Background(), res.Tokens.Refresh, ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Zero(t, f.sessions.Size())
}

func TestAuthService_RefreshRejectsUnknownToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Refresh(context.Background(), "", ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Refresh(context.Background(), "not-a-token", ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "ana@example.com", "Abc123!@", true)

	res, err := f.svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "Abc123!@"})
	require.NoError(t, err)

	principal, err := f.svc.Authenticate(context.Background(), res.Tokens.Access, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.User.ID)
	assert.Equal(t, res.DeviceID, principal.DeviceID)

	require.NoError(t, f.svc.Logout(context.Background(), principal.SessionID))
	require.NoError(t, f.svc.Logout(context.Background(), principal.SessionID))

	_, err = f.svc.Authenticate(context.Background(), res.Tokens.Access, ClientInfo{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_AuthenticateRejectsGarbage(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Authenticate(context.Background(), "garbage", ClientInfo{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_AuthenticateRejectsMalformedIdentifiers(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "ana@example.com", "Abc123!@", true)
	res, err := f.svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "Abc123!@"})
	require.NoError(t, err)
	session, err := f.sessions.FindByRefreshHash(context.Background(), security.HashRefreshToken(res.Tokens.Refresh))
	require.NoError(t, err)

	tests := []struct {
		name    string
		user    models.User
		session models.Session
	}{
		{name: "session id", user: user, session: models.Session{ID: "sess-1", DeviceID: session.DeviceID}},
		{name: "user id", user: models.User{ID: "user-1"}, session: session},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := f.issuer.AccessToken(tt.user, tt.session)
			require.NoError(t, err)

			_, err = f.svc.Authenticate(context.Background(), token, ClientInfo{})
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestAuthService_AuthenticateInactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "ana@example.com", "Abc123!@", true)

	res, err := f.svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "Abc123!@"})
	require.NoError(t, err)

	user.IsActive = false
	f.users.Add(user)

	_, err = f.svc.Authenticate(context.Background(), res.Tokens.Access, ClientInfo{})
	assert.ErrorIs(t, err, ErrInactiveUser)
}
