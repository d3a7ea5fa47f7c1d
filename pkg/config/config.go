package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every tunable for the client toolkit and the sandbox API.
// The environment is the single configuration source; nothing reads a
// hardcoded base URL.
type Config struct {
	Env string

	API     APIConfig
	Log     LogConfig
	Sandbox SandboxConfig
}

// APIConfig points the record gateway at the remote system of record.
type APIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	FeeFetchers int
}

type LogConfig struct {
	Level  string
	Format string
}

// SandboxConfig drives the bundled development backend.
type SandboxConfig struct {
	Port        int
	Prefix      string
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORSOrigins []string
	CacheTTL    time.Duration
	EnableCache bool
	RequireAuth bool
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// Load reads configuration from .env and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.Env = v.GetString("ENV")

	cfg.API = APIConfig{
		BaseURL:     strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout:     parseDuration(v.GetString("HTTP_TIMEOUT"), 10*time.Second),
		FeeFetchers: v.GetInt("FEE_FETCHERS"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sandbox = SandboxConfig{
		Port:   v.GetInt("SANDBOX_PORT"),
		Prefix: v.GetString("SANDBOX_PREFIX"),
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSL_MODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), time.Hour),
		},
		CORSOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		CacheTTL:    parseDuration(v.GetString("SANDBOX_CACHE_TTL"), time.Minute),
		EnableCache: v.GetBool("ENABLE_SANDBOX_CACHE"),
		RequireAuth: v.GetBool("SANDBOX_REQUIRE_AUTH"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("API_BASE_URL", "http://localhost:8080/api")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("FEE_FETCHERS", 4)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SANDBOX_PORT", 8080)
	v.SetDefault("SANDBOX_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_desk")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "1h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("SANDBOX_CACHE_TTL", "1m")
	v.SetDefault("ENABLE_SANDBOX_CACHE", false)
	v.SetDefault("SANDBOX_REQUIRE_AUTH", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
