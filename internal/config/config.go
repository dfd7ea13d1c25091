package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v10"
)

// Session backends.
const (
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

const (
	minRefreshTTL = 7 * 24 * time.Hour
	maxRefreshTTL = 10 * 24 * time.Hour
	minSecretLen  = 32
)

// Config holds all configuration for the StayGo server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"staygo"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"staygo"`
	PostgresPass     string        `env:"POSTGRES_PASSWORD" envDefault:"staygo_secret"`
	PostgresDB       string        `env:"POSTGRES_DB" envDefault:"staygo"`
	PostgresSSL      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32         `env:"POSTGRES_MAX_CONNS" envDefault:"25"`
	PostgresMinConns int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	PostgresConnLife time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"1h"`
	PostgresConnIdle time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	SlowQueryMS      int           `env:"LOG_SLOW_QUERY_MS" envDefault:"200"`

	// Redis
	RedisURL      string `env:"REDIS_URL"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tokens
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET" envDefault:"change-this-access-secret"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET" envDefault:"change-this-refresh-secret"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"240h"`
	TokenIssuer        string        `env:"TOKEN_ISSUER" envDefault:"staygo"`

	// Sessions
	SessionBackend         string        `env:"SESSION_BACKEND" envDefault:"postgres"`
	SessionSweepInterval   time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"720h"`
	SessionRotateOnRefresh bool          `env:"SESSION_ROTATE_ON_REFRESH" envDefault:"false"`
	CookieSecure           bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// Rate limit for sign-in, sign-up and refresh, per client IP
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Observability
	OTELEnabled      bool     `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint     string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure     bool     `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate   float64  `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	PprofAllowedCIDR []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate checks ranges and, outside development, that both token secrets
// were set explicitly and are long enough and that CORS names its origins.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	switch c.SessionBackend {
	case SessionBackendPostgres, SessionBackendRedis:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q",
			SessionBackendPostgres, SessionBackendRedis, c.SessionBackend)
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.RefreshTokenTTL < minRefreshTTL || c.RefreshTokenTTL > maxRefreshTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be between %s and %s, got %s",
			minRefreshTTL, maxRefreshTTL, c.RefreshTokenTTL)
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", c.SessionSweepInterval)
	}

	if c.AuthRateLimitRPS <= 0 || c.AuthRateLimitBurst <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must be positive")
	}

	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	if !c.IsDevelopment() {
		for name, secret := range map[string]string{
			"ACCESS_TOKEN_SECRET":  c.AccessTokenSecret,
			"REFRESH_TOKEN_SECRET": c.RefreshTokenSecret,
		} {
			if secret == "change-this-access-secret" || secret == "change-this-refresh-secret" {
				return fmt.Errorf("%s must be explicitly set via environment variable in %q mode", name, c.Environment)
			}
			if len(secret) < minSecretLen {
				return fmt.Errorf("%s must be at least %d characters long, got %d", name, minSecretLen, len(secret))
			}
		}
		// Credentialed CORS would reflect any origin.
		if slices.Contains(c.CORSAllowedOrigins, "*") {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS must list explicit origins in %q mode", c.Environment)
		}
	}

	return nil
}
