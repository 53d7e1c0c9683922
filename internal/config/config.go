package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Argon2Config struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

type SecurityConfig struct {
	JWTAccessSecret   string
	JWTAccessTTL      time.Duration
	JWTRefreshTTL     time.Duration
	MaxSessions       int
	PasswordMinLength int
	PasswordMaxLength int
	Argon2            Argon2Config
}

// EventsConfig describes the redis stream shared by the API (producer) and
// the worker (consumer).
type EventsConfig struct {
	Stream          string
	Group           string
	Consumer        string
	ClaimInterval   time.Duration
	CleanupSchedule string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Events           EventsConfig
	AllowCORSOrigins []string
}

// Load reads config.yaml (optional) and USUARIOS_* environment variables,
// e.g. USUARIOS_POSTGRES_DSN or USUARIOS_SECURITY_JWTACCESSSECRET.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("USUARIOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports settings the process cannot start without.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	if c.Security.JWTAccessSecret == "" {
		errs = append(errs, errors.New("security.jwtaccesssecret is required"))
	}
	if c.Security.JWTAccessTTL <= 0 || c.Security.JWTRefreshTTL <= 0 {
		errs = append(errs, errors.New("token ttls must be positive"))
	}
	if c.Security.MaxSessions <= 0 {
		errs = append(errs, errors.New("security.maxsessions must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateWorker checks what the stream worker needs: the database for
// cleanup tasks and a usable consumer group.
func (c *AppConfig) ValidateWorker() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	if c.Events.Stream == "" || c.Events.Group == "" || c.Events.Consumer == "" {
		errs = append(errs, errors.New("events.stream, events.group and events.consumer are required"))
	}
	if c.Events.ClaimInterval <= 0 {
		errs = append(errs, errors.New("events.claiminterval must be positive"))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.jwtaccesssecret", "")
	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "720h") // 30 days
	v.SetDefault("security.maxsessions", 10)
	v.SetDefault("security.passwordminlength", 8)
	v.SetDefault("security.passwordmaxlength", 128)
	v.SetDefault("security.argon2.time", 3)
	v.SetDefault("security.argon2.memory", 64*1024)
	v.SetDefault("security.argon2.threads", 2)

	v.SetDefault("events.stream", "usuarios:events")
	v.SetDefault("events.group", "usuarios-workers")
	v.SetDefault("events.consumer", "worker-1")
	v.SetDefault("events.claiminterval", "30s")
	v.SetDefault("events.cleanupschedule", "0 0 3 * * *")

	v.SetDefault("allowcorsorigins", []string{})
}
