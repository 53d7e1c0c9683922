// Package authfakes holds in-memory stores for exercising the auth services
// without Postgres or redis.
package authfakes

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Bryanb141518/api-profecional/internal/config"
	"github.com/Bryanb141518/api-profecional/internal/ids"
	"github.com/Bryanb141518/api-profecional/internal/models"
	"github.com/Bryanb141518/api-profecional/internal/queue"
	"github.com/Bryanb141518/api-profecional/internal/repository"
)

// Config returns settings with short limits suited to tests.
func Config() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTAccessSecret:   "test-secret",
			JWTAccessTTL:      15 * time.Minute,
			JWTRefreshTTL:     24 * time.Hour,
			MaxSessions:       2,
			PasswordMinLength: 8,
			PasswordMaxLength: 128,
		},
	}
}

// Users is an in-memory UserStore. Passwords are "hashed" with Hash.
type Users struct {
	mu   sync.Mutex
	byID map[string]models.User

	// Verified records every hash VerifyPassword was asked to check.
	Verified [][]byte
	// Err, when set, is returned by every lookup and Create.
	Err error
}

func NewUsers() *Users {
	return &Users{byID: map[string]models.User{}}
}

// Hash is the reversible stand-in for argon2id used by Users.
func Hash(password string) []byte {
	return []byte("hashed:" + password)
}

// Add stores user as-is, assigning an id when it has none.
func (f *Users) Add(user models.User) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = ids.New()
	}
	f.byID[user.ID] = user
	return user
}

func (f *Users) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *Users) Create(_ context.Context, fields models.NewUser, password string) (models.User, error) {
	if f.Err != nil {
		return models.User{}, f.Err
	}
	if exists, _ := f.ExistsByEmail(context.Background(), fields.Email); exists {
		return models.User{}, repository.ErrDuplicateEmail
	}
	return f.Add(models.User{
		Email:          fields.Email,
		Nombre:         fields.Nombre,
		Apellido:       fields.Apellido,
		Edad:           fields.Edad,
		Genero:         fields.Genero,
		TipoEstudiante: fields.TipoEstudiante,
		IsActive:       true,
		IsStaff:        fields.IsStaff,
		IsSuperuser:    fields.IsSuperuser,
		PasswordHash:   Hash(password),
		CreatedAt:      time.Now(),
	}), nil
}

func (f *Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	if f.Err != nil {
		return models.User{}, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *Users) GetByID(_ context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *Users) UpdateStudentType(_ context.Context, id string, studentType *models.StudentType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.TipoEstudiante = studentType
	f.byID[id] = u
	return nil
}

func (f *Users) List(_ context.Context, limit, offset int) ([]models.User, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]models.User, 0, len(f.byID))
	for _, u := range f.byID {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *Users) VerifyPassword(plaintext string, passwordHash []byte) bool {
	f.mu.Lock()
	f.Verified = append(f.Verified, passwordHash)
	f.mu.Unlock()
	return bytes.Equal(Hash(plaintext), passwordHash)
}

// DummyHash never equals Hash of any password.
func (f *Users) DummyHash() []byte {
	return []byte("dummy")
}

// Sessions is an in-memory SessionStore. Save upserts per user and device.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]models.Session
	seq  int
	seen map[string]int
}

func NewSessions() *Sessions {
	return &Sessions{byID: map[string]models.Session{}, seen: map[string]int{}}
}

func (f *Sessions) Save(_ context.Context, session models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.byID {
		if s.UserID == session.UserID && s.DeviceID == session.DeviceID {
			delete(f.byID, id)
		}
	}
	f.seq++
	f.seen[session.ID] = f.seq
	f.byID[session.ID] = session
	return nil
}

func (f *Sessions) CountByUser(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.byID {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *Sessions) DeleteOldestSessions(_ context.Context, userID string, keepLatest int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var owned []models.Session
	for _, s := range f.byID {
		if s.UserID == userID {
			owned = append(owned, s)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return f.seen[owned[i].ID] > f.seen[owned[j].ID] })
	for i := keepLatest; i < len(owned); i++ {
		delete(f.byID, owned[i].ID)
	}
	return nil
}

func (f *Sessions) GetByID(_ context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *Sessions) FindByRefreshHash(_ context.Context, refreshHash []byte) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if bytes.Equal(s.RefreshTokenHash, refreshHash) {
			return s, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (f *Sessions) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *Sessions) Touch(_ context.Context, sessionID string, _ string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[sessionID]; ok {
		f.seq++
		f.seen[sessionID] = f.seq
	}
	return nil
}

// Size is the number of live sessions.
func (f *Sessions) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []queue.Event
	Err    error
}

func (f *Publisher) Publish(_ context.Context, event queue.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *Publisher) Events() []queue.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]queue.Event(nil), f.events...)
}
