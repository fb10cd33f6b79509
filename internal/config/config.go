// Package config builds the immutable application configuration from the
// environment. It is loaded once in main and handed to every component that
// needs it; nothing reads configuration through package state.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"equity/internal/logger"
)

// Config holds application configuration
type Config struct {
	Env  string `env:"ENV" env-default:"development"`
	Port string `env:"PORT" env-default:"8080"`

	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Stripe    StripeConfig
	AMQP      AMQPConfig
	RateLimit RateLimitConfig

	MetricsAPIKey string   `env:"METRICS_API_KEY"`
	CORSOrigins   []string `env:"CORS_ORIGINS" env-separator:"," env-default:"*"`
}

// DatabaseConfig selects and locates the relational store.
type DatabaseConfig struct {
	Driver         string `env:"DB_DRIVER" env-default:"postgres"`
	Host           string `env:"DB_HOST" env-default:"localhost"`
	Port           string `env:"DB_PORT" env-default:"5432"`
	User           string `env:"DB_USER" env-default:"equity"`
	Password       string `env:"DB_PASSWORD" env-default:"equity"`
	Name           string `env:"DB_NAME" env-default:"equity"`
	SSLMode        string `env:"DB_SSLMODE" env-default:"disable"`
	SQLitePath     string `env:"SQLITE_PATH" env-default:"equity.db"`
	MigrationsPath string `env:"MIGRATIONS_PATH" env-default:"file://migrations"`
}

// DSN returns the PostgreSQL keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the PostgreSQL connection URL used by golang-migrate.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// JWTConfig controls session token issuing.
type JWTConfig struct {
	Secret           string        `env:"JWT_SECRET"`
	ExpiresIn        time.Duration `env:"JWT_EXPIRES_IN" env-default:"24h"`
	BlacklistEnabled bool          `env:"JWT_BLACKLIST_ENABLED" env-default:"false"`

	// SecretGenerated is set when no secret was configured and a random
	// one was created for this process.
	SecretGenerated bool
}

// RedisConfig locates the optional Redis instance backing token revocation.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// StripeConfig holds billing provider settings.
type StripeConfig struct {
	SecretKey  string        `env:"STRIPE_SECRET_KEY"`
	PriceID    string        `env:"STRIPE_PRICE_ID"`
	APIURL     string        `env:"STRIPE_API_URL"`
	Timeout    time.Duration `env:"STRIPE_TIMEOUT" env-default:"30s"`
	MaxRetries int64         `env:"STRIPE_MAX_RETRIES" env-default:"2"`
}

// AMQPConfig locates the optional RabbitMQ broker for subscription events.
type AMQPConfig struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE" env-default:"equity.events"`
}

// RateLimitConfig bounds unauthenticated credential endpoints per client IP.
type RateLimitConfig struct {
	AuthPerSecond float64 `env:"AUTH_RATE_LIMIT" env-default:"5"`
	AuthBurst     int     `env:"AUTH_RATE_BURST" env-default:"10"`
}

// Load reads configuration from the environment, after merging a .env file
// when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(".env file not found, using process environment")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.JWT.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		cfg.JWT.Secret = secret
		cfg.JWT.SecretGenerated = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that cleanenv cannot express.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q: must be postgres or sqlite", c.Database.Driver)
	}
	if c.JWT.ExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive, got %v", c.JWT.ExpiresIn)
	}
	if c.RateLimit.AuthPerSecond <= 0 || c.RateLimit.AuthBurst <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	return nil
}

// BillingConfigured reports whether subscriptions can be offered at all.
func (c *Config) BillingConfigured() bool {
	return c.Stripe.SecretKey != ""
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
