package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Bryanb141518/api-profecional/internal/config"
	"github.com/Bryanb141518/api-profecional/internal/middleware"
	"github.com/Bryanb141518/api-profecional/internal/queue"
	"github.com/Bryanb141518/api-profecional/internal/repository"
	"github.com/Bryanb141518/api-profecional/internal/security"
	"github.com/Bryanb141518/api-profecional/internal/service"
	"github.com/Bryanb141518/api-profecional/internal/validation"
)

const msgInvalidCredentials = "Credenciales inválidas"

// HealthChecks are the dependency probes reported by /healthz. A nil probe is
// reported as disabled.
type HealthChecks struct {
	Database func(ctx context.Context) error
	Cache    func(ctx context.Context) error
}

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	authService  *service.AuthService
	usersService *service.UserService
	health       HealthChecks
}

// NewHandlerSet wires repositories and services on top of the shared pools.
func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, cfg *config.AppConfig) HandlerSet {
	hasher := security.NewArgon2Hasher(security.ParamsFromConfig(cfg.Security.Argon2))
	userRepo := repository.NewUserRepository(db, hasher)
	sessionRepo := repository.NewSessionRepository(db)
	issuer := security.NewJWTIssuer(cfg.Security.JWTAccessSecret, cfg.Security.JWTAccessTTL)

	var events service.EventPublisher
	health := HealthChecks{Database: db.Ping}
	if cache != nil {
		events = queue.NewPublisher(cache, cfg.Events.Stream)
		health.Cache = func(ctx context.Context) error { return cache.Ping(ctx).Err() }
	}

	auth := service.NewAuthService(userRepo, sessionRepo, issuer, events, cfg, log)
	users := service.NewUserService(userRepo, cfg, log)

	return NewHandlerSetWith(log, cfg, auth, users, health)
}

func NewHandlerSetWith(log zerolog.Logger, cfg *config.AppConfig, auth *service.AuthService, users *service.UserService, health HealthChecks) HandlerSet {
	return HandlerSet{
		log:          log,
		cfg:          cfg,
		authService:  auth,
		usersService: users,
		health:       health,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	router.POST("/registro", h.RegisterUser)
	router.POST("/login", h.Login)
	router.POST("/token/refresh", h.Refresh)
	router.GET("/tipo-estudiante", h.StudentTypeOptions)

	protected := router.Group("")
	protected.Use(middleware.Auth(h.authService))
	protected.POST("/logout", h.Logout)
	protected.GET("/perfil", h.Profile)
	protected.PUT("/tipo-estudiante", h.SetStudentType)

	admin := router.Group("/admin")
	admin.Use(
		middleware.Auth(h.authService),
		middleware.RequireStaff(),
	)
	admin.GET("/usuarios", h.AdminListUsers)
}

// respondError maps service and validation errors onto the response bodies
// clients rely on. Anything unexpected is logged and hidden behind a 500.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	var set validation.Errors
	switch {
	case errors.As(err, &set):
		c.JSON(http.StatusBadRequest, set.Fields())
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	default:
		_ = c.Error(err)
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}

func clientInfo(c *gin.Context, deviceID, deviceName string) service.ClientInfo {
	return service.ClientInfo{
		DeviceID:   deviceID,
		DeviceName: deviceName,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	}
}
