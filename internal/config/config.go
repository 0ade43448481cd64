// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor
// principles; a local .env file is read first when present.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Rate limit backends.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// Mail transports.
const (
	MailTransportLog  = "log"
	MailTransportHTTP = "http"
)

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	AppPort    int    `env:"APP_PORT" envDefault:"8080"`
	AppVersion string `env:"APP_VERSION" envDefault:"dev"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Cache (Redis). Optional unless the redis rate limit backend is used.
	RedisURL string `env:"REDIS_URL"`

	// Public site, used for redirects and links in emails.
	SiteURL string `env:"SITE_URL" envDefault:"http://localhost:3000"`
	// Public base URL of this API, used for confirm and unsubscribe links.
	PublicAPIURL string `env:"PUBLIC_API_URL" envDefault:"http://localhost:8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitEnabled     bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitBackend     string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	RateLimitFormsMax    int           `env:"RATE_LIMIT_FORMS_MAX" envDefault:"5"`
	RateLimitFormsWindow time.Duration `env:"RATE_LIMIT_FORMS_WINDOW" envDefault:"60s"`
	RateLimitToolsMax    int           `env:"RATE_LIMIT_TOOLS_MAX" envDefault:"30"`
	RateLimitToolsWindow time.Duration `env:"RATE_LIMIT_TOOLS_WINDOW" envDefault:"60s"`
	RateLimitAdminMax    int           `env:"RATE_LIMIT_ADMIN_MAX" envDefault:"20"`
	RateLimitAdminWindow time.Duration `env:"RATE_LIMIT_ADMIN_WINDOW" envDefault:"60s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://www.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 64KB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`

	// Outbound email
	MailTransport   string `env:"MAIL_TRANSPORT" envDefault:"log"`
	MailAPIURL      string `env:"MAIL_API_URL"`
	MailAPIKey      string `env:"MAIL_API_KEY"`
	MailFrom        string `env:"MAIL_FROM" envDefault:"Northbeam <hello@northbeam.example>"`
	MailTeamAddress string `env:"MAIL_TEAM_ADDRESS" envDefault:"team@northbeam.example"`

	// CRM webhook. Disabled when the URL is empty.
	CRMWebhookURL    string `env:"CRM_WEBHOOK_URL"`
	CRMWebhookSecret string `env:"CRM_WEBHOOK_SECRET"`

	// Fire-and-forget side effects
	SideEffectTimeout time.Duration `env:"SIDE_EFFECT_TIMEOUT" envDefault:"10s"`

	// Newsletter double opt-in
	NewsletterTokenTTL time.Duration `env:"NEWSLETTER_TOKEN_TTL" envDefault:"48h"`

	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"en"`

	// Error tracking. Disabled when empty.
	SentryDSN string `env:"SENTRY_DSN"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field rules env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.RateLimitBackend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when RATE_LIMIT_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q",
			RateLimitBackendMemory, RateLimitBackendRedis, c.RateLimitBackend))
	}

	if c.RateLimitFormsMax < 1 || c.RateLimitToolsMax < 1 || c.RateLimitAdminMax < 1 {
		errs = append(errs, errors.New("rate limit maximums must be at least 1"))
	}
	if c.RateLimitFormsWindow <= 0 || c.RateLimitToolsWindow <= 0 || c.RateLimitAdminWindow <= 0 {
		errs = append(errs, errors.New("rate limit windows must be positive"))
	}

	switch c.MailTransport {
	case MailTransportLog:
	case MailTransportHTTP:
		if c.MailAPIURL == "" {
			errs = append(errs, errors.New("MAIL_API_URL is required when MAIL_TRANSPORT=http"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_TRANSPORT must be %q or %q, got %q",
			MailTransportLog, MailTransportHTTP, c.MailTransport))
	}

	if c.CRMWebhookURL != "" && c.CRMWebhookSecret == "" {
		errs = append(errs, errors.New("CRM_WEBHOOK_SECRET is required when CRM_WEBHOOK_URL is set"))
	}

	if c.SideEffectTimeout <= 0 {
		errs = append(errs, errors.New("SIDE_EFFECT_TIMEOUT must be positive"))
	}
	if c.NewsletterTokenTTL <= 0 {
		errs = append(errs, errors.New("NEWSLETTER_TOKEN_TTL must be positive"))
	}

	return errors.Join(errs...)
}

// Load reads an optional .env file, parses environment variables and
// validates the result. Returns an error if required variables are missing.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
