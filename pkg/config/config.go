package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env        string
	LogLevel   string
	Server     ServerConfig
	API        APIConfig
	Auth       AuthConfig
	Cache      CacheConfig
	Events     EventsConfig
	Redis      RedisConfig
	Scheduling SchedulingConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// APIConfig describes the upstream marketplace REST API
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	// CacheMaxAge bounds how stale a cached GET may be when served after a network failure.
	CacheMaxAge time.Duration
	// LoginPath is where callers are sent once the session cannot be refreshed.
	LoginPath string
	// RateLimit caps outbound requests per second; zero disables throttling.
	RateLimit float64
	RateBurst int
}

// AuthConfig holds the service account and where its session is persisted
type AuthConfig struct {
	Email        string
	Password     string
	SessionStore string
	SessionFile  string
	SessionKey   string
}

// CacheConfig selects the response cache backend
type CacheConfig struct {
	Backend   string
	Size      int
	KeyPrefix string
}

// EventsConfig selects where appointment change events are published
type EventsConfig struct {
	Backend string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SchedulingConfig holds slot engine settings
type SchedulingConfig struct {
	Timezone string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// A .env file is optional; variables already set take precedence
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),
		},
		API: APIConfig{
			BaseURL:     getEnv("API_BASE_URL", "http://localhost:3000/api"),
			Timeout:     getEnvAsDuration("API_TIMEOUT", 25*time.Second),
			CacheMaxAge: getEnvAsDuration("API_CACHE_MAX_AGE", time.Hour),
			LoginPath:   getEnv("API_LOGIN_PATH", "/api/session/login"),
			RateLimit:   getEnvAsFloat("API_RATE_LIMIT", 0),
			RateBurst:   getEnvAsInt("API_RATE_BURST", 10),
		},
		Auth: AuthConfig{
			Email:        getEnv("AUTH_EMAIL", ""),
			Password:     getEnv("AUTH_PASSWORD", ""),
			SessionStore: getEnv("SESSION_STORE", "file"),
			SessionFile:  getEnv("SESSION_FILE", ".slotbook/session.json"),
			SessionKey:   getEnv("SESSION_KEY", "slotbook:session"),
		},
		Cache: CacheConfig{
			Backend:   getEnv("RESPONSE_CACHE", "memory"),
			Size:      getEnvAsInt("RESPONSE_CACHE_SIZE", 512),
			KeyPrefix: getEnv("RESPONSE_CACHE_PREFIX", "slotbook:response:"),
		},
		Events: EventsConfig{
			Backend: getEnv("EVENT_BUS", "memory"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Scheduling: SchedulingConfig{
			Timezone: getEnv("SCHEDULE_TIMEZONE", "UTC"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "slotbook"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative")
	}
	switch c.Auth.SessionStore {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Auth.SessionStore)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported RESPONSE_CACHE %q", c.Cache.Backend)
	}
	switch c.Events.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported EVENT_BUS %q", c.Events.Backend)
	}
	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		return fmt.Errorf("invalid SCHEDULE_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the time zone slot times are expressed in
func (c *SchedulingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// UsesRedis reports whether any component is configured against Redis
func (c *Config) UsesRedis() bool {
	return c.Auth.SessionStore == "redis" || c.Cache.Backend == "redis" || c.Events.Backend == "redis"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
