package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/infrastructure/db"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

const devSecret = "dev-secret-change-me"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Auth     AuthConfig     `yaml:"auth"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type StoreConfig struct {
	Driver      string        `yaml:"driver"`
	DatabaseURL string        `yaml:"-"`
	RedisURL    string        `yaml:"-"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	Pool        db.PoolConfig `yaml:"pool"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"-"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type NotifyConfig struct {
	Cooldown                time.Duration `yaml:"cooldown"`
	FirebaseCredentialsPath string        `yaml:"firebase_credentials_path"`
	FirebaseCredentialsJSON string        `yaml:"-"`
	TelegramToken           string        `yaml:"-"`
	TelegramChatID          int64         `yaml:"telegram_chat_id"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type DefaultsConfig struct {
	Levels domain.PivotLevels `yaml:"levels"`
	Price  float64            `yaml:"price"`
}

// Default returns a configuration that runs locally with the in-memory store.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			Driver:     DriverMemory,
			SessionTTL: 24 * time.Hour,
			Pool:       db.DefaultPoolConfig(),
		},
		Auth: AuthConfig{
			JWTSecret: devSecret,
			TokenTTL:  24 * time.Hour,
		},
		Notify: NotifyConfig{
			Cooldown: 5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		Defaults: DefaultsConfig{
			Levels: domain.DefaultPivotLevels(),
			Price:  domain.DefaultPrice,
		},
	}
}

// Load builds the configuration from defaults, the optional CONFIG_FILE YAML
// overlay and finally environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	if v := getEnv("CORS_ORIGINS", ""); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	c.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", c.Store.Driver))
	c.Store.DatabaseURL = getEnv("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.RedisURL = getEnv("REDIS_URL", c.Store.RedisURL)
	c.Store.SessionTTL = getEnvDuration("SESSION_TTL", c.Store.SessionTTL)
	c.Store.Pool.MaxConns = int32(getEnvInt("DB_MAX_CONNS", int(c.Store.Pool.MaxConns)))
	c.Store.Pool.MinConns = int32(getEnvInt("DB_MIN_CONNS", int(c.Store.Pool.MinConns)))
	c.Store.Pool.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", c.Store.Pool.MaxConnLifetime)
	c.Store.Pool.MaxConnIdleTime = getEnvDuration("DB_MAX_CONN_IDLE_TIME", c.Store.Pool.MaxConnIdleTime)
	c.Store.Pool.HealthCheckPeriod = getEnvDuration("DB_HEALTHCHECK_PERIOD", c.Store.Pool.HealthCheckPeriod)
	c.Store.Pool.SSLMode = getEnv("DB_SSLMODE", c.Store.Pool.SSLMode)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = getEnvDuration("TOKEN_TTL", c.Auth.TokenTTL)

	c.Notify.Cooldown = getEnvDuration("NOTIFY_COOLDOWN", c.Notify.Cooldown)
	c.Notify.FirebaseCredentialsPath = getEnv("FIREBASE_CREDENTIALS_PATH", c.Notify.FirebaseCredentialsPath)
	c.Notify.FirebaseCredentialsJSON = getEnv("FIREBASE_CREDENTIALS_JSON", c.Notify.FirebaseCredentialsJSON)
	c.Notify.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.Notify.TelegramToken)
	c.Notify.TelegramChatID = getEnvInt64("TELEGRAM_CHAT_ID", c.Notify.TelegramChatID)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvBool("LOG_PRETTY", c.Log.Pretty)
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case DriverRedis:
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}

	if err := domain.ValidateLevels(c.Defaults.Levels); err != nil {
		errs = append(errs, fmt.Errorf("default levels: %w", err))
	}
	if err := domain.ValidatePrice("default price", c.Defaults.Price); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// UsesDevSecret reports whether the built-in signing secret is still in place.
func (c Config) UsesDevSecret() bool {
	return c.Auth.JWTSecret == devSecret
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := getEnv(key, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := getEnv(key, ""); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := getEnv(key, ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := getEnv(key, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
