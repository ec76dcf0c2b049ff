package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Backend   BackendConfig
	Schedule  ScheduleConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	OTEL      OTELConfig
	CORS      CORSConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// BackendConfig points at the scheduling backend
type BackendConfig struct {
	// URL is the absolute backend origin. Empty means "not configured":
	// the console falls back to DefaultBackendURL for its own calls.
	URL     string
	Timeout time.Duration
}

// DefaultBackendURL is used when BACKEND_URL is unset.
const DefaultBackendURL = "http://localhost:8000"

// ScheduleConfig holds grid and sync settings
type ScheduleConfig struct {
	PixelsPerHour   float64
	RefreshInterval time.Duration
	StrictOrdering  bool
	Timezone        string
	SessionTTL      time.Duration
}

// RedisConfig holds Redis configuration. Redis is optional.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// CORSConfig holds allowed origins
type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 3000)
	v.SetDefault("BACKEND_URL", "")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("SCHEDULE_PIXELS_PER_HOUR", 72)
	v.SetDefault("SCHEDULE_REFRESH_INTERVAL", "5m")
	v.SetDefault("SCHEDULE_STRICT_ORDERING", false)
	v.SetDefault("SCHEDULE_TIMEZONE", "Local")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("OTEL_SERVICE_NAME", "schedule-console")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("OTEL_ENDPOINT", "")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("ALLOWED_ORIGINS", "*")

	// Missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(strings.TrimSpace(v.GetString("BACKEND_URL")), "/"),
			Timeout: v.GetDuration("BACKEND_TIMEOUT"),
		},
		Schedule: ScheduleConfig{
			PixelsPerHour:   v.GetFloat64("SCHEDULE_PIXELS_PER_HOUR"),
			RefreshInterval: v.GetDuration("SCHEDULE_REFRESH_INTERVAL"),
			StrictOrdering:  v.GetBool("SCHEDULE_STRICT_ORDERING"),
			Timezone:        v.GetString("SCHEDULE_TIMEZONE"),
			SessionTTL:      v.GetDuration("SESSION_TTL"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the console cannot run with
func (c *Config) Validate() error {
	if c.Schedule.PixelsPerHour <= 0 {
		return fmt.Errorf("SCHEDULE_PIXELS_PER_HOUR must be positive, got %v", c.Schedule.PixelsPerHour)
	}
	if c.Schedule.RefreshInterval <= 0 {
		return fmt.Errorf("SCHEDULE_REFRESH_INTERVAL must be positive, got %s", c.Schedule.RefreshInterval)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive, got %s", c.Backend.Timeout)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("SCHEDULE_TIMEZONE: %w", err)
	}
	return nil
}

// IsDev reports whether the console runs in development mode
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// BackendOrigin returns the origin the console itself calls.
func (c *BackendConfig) BackendOrigin() string {
	if c.URL == "" {
		return DefaultBackendURL
	}
	return c.URL
}

// Location returns the schedule's wall-clock location
func (c *ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
