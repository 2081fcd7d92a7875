package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/locale"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// EnvPrefix namespaces every variable, e.g. STOREFRONT_API_BASE_URL.
const EnvPrefix = "STOREFRONT_"

// Config holds all configuration for the storefront client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Storefront API
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8000/api/v1"`
	APIToken   string `env:"API_TOKEN"`

	// Locales
	DefaultLocale    string   `env:"DEFAULT_LOCALE" envDefault:"en"`
	SupportedLocales []string `env:"SUPPORTED_LOCALES" envDefault:"en,ar" envSeparator:","`

	// HTTP client
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	MaxRetries        int           `env:"MAX_RETRIES" envDefault:"2"`
	RetryWaitMin      time.Duration `env:"RETRY_WAIT_MIN" envDefault:"300ms"`
	RetryWaitMax      time.Duration `env:"RETRY_WAIT_MAX" envDefault:"3s"`
	RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND" envDefault:"10"`
	Burst             int           `env:"REQUEST_BURST" envDefault:"5"`

	// Circuit breaker
	CBMaxRequests  uint32        `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     time.Duration `env:"CB_INTERVAL" envDefault:"60s"`
	CBTimeout      time.Duration `env:"CB_TIMEOUT" envDefault:"30s"`
	CBFailureRatio float64       `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32        `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Redis holds the locale preference and the last cart snapshot. An
	// empty address disables persistence.
	RedisAddr   string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass   string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	DeviceID    string        `env:"DEVICE_ID" envDefault:"default"`
	SnapshotTTL time.Duration `env:"CART_SNAPSHOT_TTL" envDefault:"168h"`

	// Tracing
	TracingEnabled  bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Diagnostics server (serve command)
	HTTPPort int `env:"HTTP_PORT" envDefault:"8090"`
}

// Load reads configuration from STOREFRONT_-prefixed environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithPrefix(cfg, EnvPrefix); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Locales returns the parsed default and supported locales. The default is
// always part of the supported list.
func (c *Config) Locales() (locale.Locale, []locale.Locale) {
	def := locale.ParseOr(c.DefaultLocale, locale.Default)
	supported := locale.ParseList(c.SupportedLocales)
	if !slices.Contains(supported, def) {
		supported = append([]locale.Locale{def}, supported...)
	}
	return def, supported
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	u, err := url.Parse(strings.TrimSpace(c.APIBaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if _, err := locale.Parse(c.DefaultLocale); err != nil {
		return fmt.Errorf("invalid DEFAULT_LOCALE: %w", err)
	}
	if len(locale.ParseList(c.SupportedLocales)) == 0 {
		return fmt.Errorf("SUPPORTED_LOCALES must list at least one valid locale")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	if c.RetryWaitMin > c.RetryWaitMax {
		return fmt.Errorf("RETRY_WAIT_MIN (%s) must not exceed RETRY_WAIT_MAX (%s)", c.RetryWaitMin, c.RetryWaitMax)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("REQUESTS_PER_SECOND must not be negative, got %g", c.RequestsPerSecond)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %g", c.CBFailureRatio)
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be in [0, 1], got %g", c.TraceSampleRate)
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	return nil
}
