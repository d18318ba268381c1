package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"emr-service"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string `env:"POSTGRES_DSN"`
	ApplicationName string
	MaxConns        int32 `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns        int32 `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations   bool  `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec  int32 `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec  int32 `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Service     string
	Development bool
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"30"`
	BcryptCost            int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`
	MaxLoginAttempts      int    `env:"AUTH_MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LoginAttemptWindowSec int    `env:"AUTH_LOGIN_ATTEMPT_WINDOW_SECONDS" envDefault:"900"`
}

// KafkaConfig enables exporting login events. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers         []string `env:"KAFKA_BROKERS" envSeparator:","`
	LoginTopic      string   `env:"KAFKA_LOGIN_TOPIC" envDefault:"emr.auth.logins"`
	WriteTimeoutSec int      `env:"KAFKA_WRITE_TIMEOUT_SECONDS" envDefault:"5"`
}

// TracingConfig enables OTLP/HTTP trace export. Empty Endpoint disables it.
type TracingConfig struct {
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLE_RATIO" envDefault:"1"`
}

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET must be set")

// Load reads .env (when present) and the process environment, applying defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.Postgres.ApplicationName = cfg.App.Name
	cfg.Logger.Service = cfg.App.Name
	cfg.Logger.Development = cfg.App.Env == "development"
	cfg.Kafka.Brokers = compact(cfg.Kafka.Brokers)

	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the bearer token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// LoginAttemptWindow returns how long failed login attempts are counted.
func (a AuthConfig) LoginAttemptWindow() time.Duration {
	if a.LoginAttemptWindowSec <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.LoginAttemptWindowSec) * time.Second
}

// Enabled reports whether login events are exported.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// WriteTimeout bounds a single event write.
func (k KafkaConfig) WriteTimeout() time.Duration {
	if k.WriteTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(k.WriteTimeoutSec) * time.Second
}

// Enabled reports whether traces are exported.
func (t TracingConfig) Enabled() bool {
	return t.Endpoint != ""
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
